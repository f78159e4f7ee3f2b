package sqlite

import (
	"context"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResolveReference is get-or-create keyed by external id. Concurrent first
// resolutions race on the primary key; the loser's insert is a no-op and it
// reads the winner's row. An empty stored label is backfilled from value.
func (r *GraphRepository) ResolveReference(ctx context.Context, value domain.Reference) (domain.Reference, error) {
	var out ReferenceModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := ReferenceModel{
			ExternalID:  value.ExternalID,
			Label:       value.Label,
			Description: value.Description,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.Where("external_id = ?", value.ExternalID).First(&out).Error; err != nil {
			return err
		}

		if out.Label == "" && value.Label != "" {
			out.Label = value.Label
			if out.Description == "" {
				out.Description = value.Description
			}
			if err := tx.Model(&ReferenceModel{}).Where("external_id = ?", out.ExternalID).Updates(map[string]any{
				"label":       out.Label,
				"description": out.Description,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Reference{}, translateLookup(err, "reference", value.ExternalID)
	}
	return toReference(out), nil
}

func (r *GraphRepository) GetReference(ctx context.Context, externalID string) (domain.Reference, error) {
	var m ReferenceModel
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&m).Error; err != nil {
		return domain.Reference{}, translateLookup(err, "reference", externalID)
	}
	return toReference(m), nil
}

func toReference(m ReferenceModel) domain.Reference {
	return domain.Reference{
		ExternalID:  m.ExternalID,
		Label:       m.Label,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
