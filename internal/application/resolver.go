package application

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
)

const maxExternalIDLength = 255

// Resolver maps an external knowledge-base id chosen by the caller onto the
// locally cached reference row.
type Resolver struct {
	store domain.ReferenceRepository
}

func NewResolver(store domain.ReferenceRepository) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the cached reference for externalID, creating it on first
// use. label and description only fill a reference whose label is empty.
func (r *Resolver) Resolve(ctx context.Context, externalID, label, description string) (domain.Reference, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return domain.Reference{}, domain.NewValidationError("reference_id is required")
	}
	if len(id) > maxExternalIDLength {
		return domain.Reference{}, domain.NewValidationError("reference_id must be at most %d characters", maxExternalIDLength)
	}

	return r.store.ResolveReference(ctx, domain.Reference{
		ExternalID:  id,
		Label:       strings.TrimSpace(label),
		Description: strings.TrimSpace(description),
	})
}

func (r *Resolver) Get(ctx context.Context, externalID string) (domain.Reference, error) {
	return r.store.GetReference(ctx, strings.TrimSpace(externalID))
}
