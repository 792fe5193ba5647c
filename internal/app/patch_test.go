package app

import (
	"errors"
	"testing"
)

func TestApplyOperationsInsertAfter(t *testing.T) {
	ops := []ChangeOperation{{Kind: OpInsert, AnchorLine: "x=1", Position: "after", Text: "x=3"}}

	out, err := ApplyOperations("x=1\nx=2\n", ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "x=1\nx=3\nx=2\n" {
		t.Fatalf("unexpected result: %q", out)
	}
}

func TestApplyOperationsInsertBefore(t *testing.T) {
	ops := []ChangeOperation{{Kind: OpInsert, AnchorLine: "x=2", Position: "before", Text: "x=0"}}

	out, err := ApplyOperations("x=1\nx=2\n", ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "x=1\nx=0\nx=2\n" {
		t.Fatalf("unexpected result: %q", out)
	}
}

func TestApplyOperationsAmbiguousAnchorFails(t *testing.T) {
	ops := []ChangeOperation{{Kind: OpInsert, AnchorLine: "x=", Position: "after", Text: "x=3"}}

	_, err := ApplyOperations("x=1\nx=2\n", ops)
	var pe *PatchError
	if !errors.As(err, &pe) || pe.Code != FailAnchorAmbiguous {
		t.Fatalf("expected AnchorAmbiguous, got %v", err)
	}
}

func TestApplyOperationsAnchorNotFound(t *testing.T) {
	ops := []ChangeOperation{{Kind: OpInsert, AnchorLine: "y=9", Position: "after", Text: "nope"}}

	_, err := ApplyOperations("x=1\n", ops)
	var pe *PatchError
	if !errors.As(err, &pe) || pe.Code != FailAnchorNotFound {
		t.Fatalf("expected AnchorNotFound, got %v", err)
	}
}

func TestApplyOperationsReplaceFirstOccurrence(t *testing.T) {
	ops := []ChangeOperation{{Kind: OpReplace, Source: "foo", Replacement: "bar"}}

	out, err := ApplyOperations("foo one foo two\n", ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "bar one foo two\n" {
		t.Fatalf("only the first occurrence should change, got %q", out)
	}
}

func TestApplyOperationsTypedFailures(t *testing.T) {
	cases := []struct {
		op   ChangeOperation
		code PatchFailure
	}{
		{ChangeOperation{Kind: OpReplace, Source: "missing", Replacement: "x"}, FailSourceNotFound},
		{ChangeOperation{Kind: OpDelete, Target: "missing"}, FailTargetNotFound},
	}
	for _, tc := range cases {
		_, err := ApplyOperations("content\n", []ChangeOperation{tc.op})
		var pe *PatchError
		if !errors.As(err, &pe) || pe.Code != tc.code {
			t.Fatalf("expected %s, got %v", tc.code, err)
		}
	}
}

func TestApplyOperationsEmptyFileFails(t *testing.T) {
	ops := []ChangeOperation{{Kind: OpInsert, AnchorLine: "x", Position: "after", Text: "y"}}

	_, err := ApplyOperations("", ops)
	var pe *PatchError
	if !errors.As(err, &pe) || pe.Code != FailEmptyFile {
		t.Fatalf("targeted ops against an empty file must fail, got %v", err)
	}
}

func TestApplyOperationsFailureAbortsWholePatch(t *testing.T) {
	ops := []ChangeOperation{
		{Kind: OpReplace, Source: "a", Replacement: "A"},
		{Kind: OpDelete, Target: "zz"},
	}

	out, err := ApplyOperations("a b c\n", ops)
	if err == nil {
		t.Fatal("expected failure at second operation")
	}
	if out != "" {
		t.Fatalf("no partial result may escape, got %q", out)
	}
	var pe *PatchError
	if !errors.As(err, &pe) || pe.OpIndex != 1 {
		t.Fatalf("failure should name operation 2, got %v", err)
	}
}

func TestApplyOperationsSequentialBuffer(t *testing.T) {
	// The second operation sees the first one's output.
	ops := []ChangeOperation{
		{Kind: OpReplace, Source: "x=1", Replacement: "x=10"},
		{Kind: OpInsert, AnchorLine: "x=10", Position: "after", Text: "y=2"},
	}

	out, err := ApplyOperations("x=1\n", ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "x=10\ny=2\n" {
		t.Fatalf("unexpected result: %q", out)
	}
}
