package tree

import (
	"fmt"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
	"github.com/spf13/cobra"
)

var (
	putCmd = &cobra.Command{
		Use:   "put [path] [value]",
		Short: "Installs a value at a path, creating parents as needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			p, err := rpcStore.Put(pat, tree.DataPayload([]byte(args[1])))
			if err != nil {
				return err
			}
			fmt.Printf("put succeeded: %s\n", p)
			return nil
		},
	}
	createCmd = &cobra.Command{
		Use:   "create [path] [value]",
		Short: "Installs a value at a path, failing if it already exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			p, err := rpcStore.Create(pat, tree.DataPayload([]byte(args[1])))
			if err != nil {
				return err
			}
			fmt.Printf("create succeeded: %s\n", p)
			return nil
		},
	}
	updateCmd = &cobra.Command{
		Use:   "update [path] [value]",
		Short: "Replaces the value at an existing node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			p, err := rpcStore.Update(pat, tree.DataPayload([]byte(args[1])))
			if err != nil {
				return err
			}
			fmt.Printf("update succeeded: %s\n", p)
			return nil
		},
	}
	casCmd = &cobra.Command{
		Use:   "cas [path] [value]",
		Short: "Replaces the value at a node only if it currently has data",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			p, err := rpcStore.CompareAndSwap(pat, path.HasData{}, tree.DataPayload([]byte(args[1])))
			if err != nil {
				return err
			}
			fmt.Printf("compare-and-swap succeeded: %s\n", p)
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [path]",
		Short: "Reads the properties of the node at a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			props, err := rpcStore.Get(pat)
			if err != nil {
				return err
			}
			fmt.Printf("path=%s, hasData=%v, data=%s\n", args[0], props.HasData, props.Data)
			return nil
		},
	}
	existsCmd = &cobra.Command{
		Use:   "exists [path]",
		Short: "Checks whether a path resolves to an existing node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			ok, err := rpcStore.Exists(pat)
			if err != nil {
				return err
			}
			fmt.Printf("path=%s, exists=%v\n", args[0], ok)
			return nil
		},
	}
	countCmd = &cobra.Command{
		Use:   "count [pattern]",
		Short: "Counts the nodes matching a (possibly wildcarded) pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			n, err := rpcStore.Count(pat)
			if err != nil {
				return err
			}
			fmt.Printf("pattern=%s, count=%d\n", args[0], n)
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [path]",
		Short: "Deletes the node at a path and cascades through its keep-while watchers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			if err := rpcStore.Delete(pat); err != nil {
				return err
			}
			fmt.Println("delete succeeded")
			return nil
		},
	}
	delManyCmd = &cobra.Command{
		Use:   "del-many [pattern]",
		Short: "Deletes every node matched by a (possibly wildcarded) pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			n, err := rpcStore.DeleteMany(pat)
			if err != nil {
				return err
			}
			fmt.Printf("delete-many succeeded, removed %d node(s)\n", n)
			return nil
		},
	}
	delPayloadCmd = &cobra.Command{
		Use:   "del-payload [path]",
		Short: "Resets a node's payload to None without removing the node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pat, err := path.ParseString(args[0])
			if err != nil {
				return err
			}
			p, err := rpcStore.DeletePayload(pat)
			if err != nil {
				return err
			}
			fmt.Printf("delete-payload succeeded: %s\n", p)
			return nil
		},
	}
	sprocCmd = &cobra.Command{
		Use:   "run-sproc [path]",
		Short: "Invokes a previously registered stored procedure by path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := path.ParsePath(args[0])
			if err != nil {
				return err
			}
			result, err := rpcStore.RunStoredProc(p)
			if err != nil {
				return err
			}
			fmt.Printf("run-sproc succeeded: %v\n", result)
			return nil
		},
	}
)
