package path

import "strings"

// ParseString parses a Unix-like path pattern: '/' separates components, a
// leading ':' marks an atom-like Name identifier, "*" is wildcard-one and
// "**" is wildcard-any-depth. Anything else is a literal Bytes identifier
// (optionally '%'-escaped, see NodeID.String).
//
// The empty string and "/" both parse to the empty (root) pattern.
func ParseString(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "/" {
		return Pattern{}, nil
	}
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return Pattern{}, nil
	}

	tokens := strings.Split(s, "/")
	pat := make(Pattern, 0, len(tokens))
	for _, tok := range tokens {
		switch tok {
		case "":
			return nil, errEmptyComponent(s)
		case "*":
			pat = append(pat, Wildcard{})
		case "**":
			pat = append(pat, WildcardDeep{})
		default:
			id, err := ParseNodeID(tok)
			if err != nil {
				return nil, err
			}
			pat = append(pat, Literal{ID: id})
		}
	}
	return pat, nil
}

// Render is the inverse of ParseString for patterns built from Literal,
// Wildcard and WildcardDeep components.
func Render(p Pattern) string {
	return p.String()
}

type errEmptyComponentPath string

func (e errEmptyComponentPath) Error() string {
	return "path: empty component in pattern: " + string(e)
}

func errEmptyComponent(s string) error {
	return errEmptyComponentPath(s)
}
