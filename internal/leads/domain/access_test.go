package domain

import "testing"

func TestMaxAccess(t *testing.T) {
	if got := MaxAccess(); got != AccessNone {
		t.Fatalf("expected none, got %s", got)
	}
	if got := MaxAccess(AccessBasic, AccessNone); got != AccessBasic {
		t.Fatalf("expected basic, got %s", got)
	}
	if got := MaxAccess(AccessBasic, AccessFull, AccessContact); got != AccessFull {
		t.Fatalf("expected full, got %s", got)
	}
	if got := MaxAccess(AccessLevel("bogus"), AccessNone); got != AccessNone {
		t.Fatalf("expected none for unknown level, got %s", got)
	}
}

func TestParseAccessLevel(t *testing.T) {
	if l, err := ParseAccessLevel(" Contact "); err != nil || l != AccessContact {
		t.Fatalf("unexpected parse result %s %v", l, err)
	}
	if _, err := ParseAccessLevel("admin"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if AccessBasic.IsPurchasable() || !AccessFull.IsPurchasable() {
		t.Fatal("only contact and full can be purchased")
	}
}
