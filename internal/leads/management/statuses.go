package management

import (
	"context"
	"fmt"

	"homni_backend/internal/leads/domain"
	"homni_backend/internal/leads/repository"
	"homni_backend/platform/logger"
)

// CanonicalizeStatuses rewrites every stored legacy status to the canonical
// status the normalizer maps it to. Writes compare the stored column against
// canonical values, so rows still holding "tildelt" or "unassigned" would
// never match a transition or assignment until rewritten. Returns the number
// of leads changed.
func CanonicalizeStatuses(ctx context.Context, store repository.StatusRewriter, normalizer *domain.Normalizer, log *logger.Logger) (int64, error) {
	values, err := store.ListNonCanonicalStatuses(ctx)
	if err != nil {
		return 0, fmt.Errorf("list legacy statuses: %w", err)
	}

	var total int64
	for _, raw := range values {
		status := normalizer.Normalize(raw)
		n, err := store.RewriteStatus(ctx, raw, status)
		if err != nil {
			return total, fmt.Errorf("rewrite status %q: %w", raw, err)
		}
		total += n
		log.Info("legacy lead status rewritten", "from", raw, "to", status, "leads", n)
	}
	return total, nil
}
