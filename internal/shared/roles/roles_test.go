package roles

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw    string
		want   Role
		wantOK bool
	}{
		{"admin", Admin, true},
		{" Master-Admin ", MasterAdmin, true},
		{"member", User, true},
		{"superadmin", MasterAdmin, true},
		{"business", CompanyUser, true},
		{"owner", CompanyAdmin, true},
		{"guest", "", false},
		{"", "", false},
	}

	for _, tc := range tests {
		got, ok := Normalize(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestNormalizeAllDropsUnknownAndDuplicates(t *testing.T) {
	got := NormalizeAll([]string{"member", "user", "unknown", "admin"})
	if len(got) != 2 || got[0] != User || got[1] != Admin {
		t.Fatalf("unexpected roles: %v", got)
	}
	if !IsAdmin(got) {
		t.Fatal("expected admin")
	}
	if IsCompanyMember(got) {
		t.Fatal("did not expect company membership")
	}
}
