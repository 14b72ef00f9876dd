package repository

import (
	"strings"
	"testing"
)

func TestActiveRolesQueryIgnoresExpiredRows(t *testing.T) {
	query := strings.ToLower(activeRolesQuery)

	requiredFragments := []string{
		"from user_roles",
		"where user_id = $1",
		"expires_at is null or expires_at > now()",
	}

	for _, fragment := range requiredFragments {
		if !strings.Contains(query, fragment) {
			t.Fatalf("expected role query fragment %q to be present", fragment)
		}
	}
}

func TestCleanupQueryOnlyTouchesExpiringRows(t *testing.T) {
	query := strings.ToLower(cleanupExpiredRolesQuery)

	if !strings.Contains(query, "expires_at is not null") {
		t.Fatal("cleanup must keep permanent roles")
	}
	if !strings.Contains(query, "expires_at <= $1") {
		t.Fatal("cleanup must compare against the supplied time")
	}
	if strings.Contains(query, "from users") {
		t.Fatal("cleanup must never delete users")
	}
}
