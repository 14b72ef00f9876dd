package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"homni_backend/internal/leads/domain"
)

func TestStatusCheckCoversCanonicalSet(t *testing.T) {
	raw, err := fs.ReadFile(FS, "00004_lead_status_check.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sql := string(raw)

	want := make([]string, len(domain.AllStatuses))
	for i, s := range domain.AllStatuses {
		want[i] = "'" + string(s) + "'"
	}
	list := "(" + strings.Join(want, ", ") + ")"

	for _, column := range []string{"CHECK (status IN ", "from_status IN ", "to_status IN "} {
		if !strings.Contains(sql, column+list) {
			t.Fatalf("expected %s%s in migration", column, list)
		}
	}
}
