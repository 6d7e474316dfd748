package metrics

import "testing"

func TestIncAndSnapshot(t *testing.T) {
	c := New()

	c.Inc(KindFunctionDecl)
	c.Inc(KindBinaryExpr)
	c.Inc(KindBinaryExpr)

	snap := c.Snapshot()
	if snap[KindFunctionDecl] != 1 {
		t.Errorf("expected 1 function, got %d", snap[KindFunctionDecl])
	}
	if snap[KindBinaryExpr] != 2 {
		t.Errorf("expected 2 binary exprs, got %d", snap[KindBinaryExpr])
	}
	if snap[KindVarDecl] != 0 {
		t.Errorf("expected 0 var-decls, got %d", snap[KindVarDecl])
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	c := New()
	c.Inc(KindReturnStmt)

	snap := c.Snapshot()
	snap[KindReturnStmt] = 99

	again := c.Snapshot()
	if again[KindReturnStmt] != 1 {
		t.Errorf("mutating a snapshot should not affect the Counters, got %d", again[KindReturnStmt])
	}
}

func TestName(t *testing.T) {
	if Name(KindBinaryExpr) != "binary-exprs" {
		t.Errorf("unexpected name for KindBinaryExpr: %s", Name(KindBinaryExpr))
	}
	if Name(NodeKind('?')) != "unknown" {
		t.Errorf("expected unrecognized kind to report 'unknown'")
	}
}
