package quota

import (
	"context"

	"github.com/ChaosClubCo/FlashFusion-sub000/internal/domain"
)

// Meter wraps the billing-period usage counter. A claim must happen before
// any costly generation work so that concurrent requests cannot both slip
// past a read-then-write check. Claimed usage is deliberately not refunded
// when the generation later fails: the attempt consumed provider resources,
// and refunds would let a failing prompt be retried for free indefinitely.
type Meter struct {
	usage domain.UsageRepository
}

// NewMeter constructs a meter over the usage store.
func NewMeter(usage domain.UsageRepository) *Meter {
	return &Meter{usage: usage}
}

// Claim consumes one unit of quota. Returns domain.ErrQuotaExceeded with the
// unchanged counter when the user is at limit, domain.ErrNotFound when the
// user has no counter row.
func (m *Meter) Claim(ctx context.Context, ownerID string) (*domain.Usage, error) {
	return m.usage.Claim(ctx, ownerID)
}

// Check returns the counter without consuming quota.
func (m *Meter) Check(ctx context.Context, ownerID string) (*domain.Usage, error) {
	return m.usage.Get(ctx, ownerID)
}
