package txn

import (
	"errors"
	"testing"

	"github.com/grove-db/grove/lib/path"
	"github.com/grove-db/grove/lib/tree"
)

func TestClassifyRespectsExplicitDeclaration(t *testing.T) {
	tests := []struct {
		name string
		spec TxSpec
		want Mode
	}{
		{"declared-read-only", TxSpec{Declared: ReadOnly}, ReadOnly},
		{"declared-read-write", TxSpec{Declared: ReadWrite}, ReadWrite},
		{"auto-mutates", TxSpec{Declared: Auto, Mutates: true}, ReadWrite},
		{"auto-no-mutation", TxSpec{Declared: Auto, Mutates: false}, ReadOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.spec); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExecuteRecoversPanicAsException(t *testing.T) {
	tx := &ReadOnlyTx{Snapshot: tree.New()}
	_, err := Execute(tx, func(tx Tx) (any, error) {
		panic("boom")
	})
	var exc *Exception
	if !errors.As(err, &exc) {
		t.Fatalf("expected *Exception, got %v", err)
	}
	if exc.Value != "boom" {
		t.Errorf("expected panic value preserved, got %v", exc.Value)
	}
}

func TestExecuteReturnsFunctionResult(t *testing.T) {
	tx := &ReadOnlyTx{Snapshot: tree.New()}
	result, err := Execute(tx, func(tx Tx) (any, error) {
		return 42, nil
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %v", result)
	}
}

func TestReadOnlyTxDeniesMutation(t *testing.T) {
	tx := &ReadOnlyTx{Snapshot: tree.New()}
	pat, _ := path.ParseString("/stock/oak")

	_, err := tx.Put(pat, tree.DataPayload(1))
	var abortErr *AbortError
	if !errors.As(err, &abortErr) || abortErr.Reason != AbortStoreUpdateDenied {
		t.Fatalf("expected StoreUpdateDenied, got %v", err)
	}
}

func TestReadOnlyTxGetAndExists(t *testing.T) {
	tr := tree.New()
	p, _ := path.ParsePath("/stock/oak")
	tr.Insert(p, true)
	tr.SetPayload(p, tree.DataPayload(80))

	tx := &ReadOnlyTx{Snapshot: tr}
	pat, _ := path.ParseString("/stock/oak")

	ok, err := tx.Exists(pat)
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if !ok {
		t.Error("expected node to exist")
	}

	props, err := tx.Get(pat)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if props.Data != 80 {
		t.Errorf("expected data 80, got %v", props.Data)
	}
}
