package types

import "testing"

func TestToken_FailShortCircuits(t *testing.T) {
	tok := NewToken("iid-1", &Invocation{ID: "iid-1"})
	if tok.Failed() {
		t.Fatal("fresh token must not be failed")
	}

	tok.Fail("inst-1", "first failure")
	if !tok.Failed() {
		t.Fatal("token must be failed after Fail")
	}
	if tok.InvRes.Error != "first failure" {
		t.Fatalf("InvRes.Error = %q, want %q", tok.InvRes.Error, "first failure")
	}

	// A second Fail call must not overwrite the first failure.
	tok.Fail("inst-1", "second failure")
	if tok.InvRes.Error != "first failure" {
		t.Fatalf("first failure was overwritten: InvRes.Error = %q", tok.InvRes.Error)
	}
}
