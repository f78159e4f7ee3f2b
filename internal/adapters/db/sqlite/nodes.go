package sqlite

import (
	"context"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GraphRepository) CreateNode(ctx context.Context, value domain.Node) (domain.Node, error) {
	m := NodeModel{
		TopicID:     value.TopicID,
		CreatorID:   value.CreatorID,
		ManualName:  value.ManualName,
		ReferenceID: value.ReferenceID,
		Description: value.Description,
		X:           value.X,
		Y:           value.Y,
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return domain.Node{}, translate(err)
	}
	return r.GetNode(ctx, m.ID)
}

func (r *GraphRepository) GetNode(ctx context.Context, id uint) (domain.Node, error) {
	var m NodeModel
	if err := r.db.WithContext(ctx).Preload("Reference").First(&m, id).Error; err != nil {
		return domain.Node{}, translateLookup(err, "node", id)
	}
	return toNode(m), nil
}

func (r *GraphRepository) ListNodes(ctx context.Context, topicID *uint, limit int) ([]domain.Node, error) {
	q := r.db.WithContext(ctx).Model(&NodeModel{}).Preload("Reference")
	if topicID != nil {
		q = q.Where("topic_id = ?", *topicID)
	}

	rows := make([]NodeModel, 0)
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	result := make([]domain.Node, 0, len(rows))
	for _, m := range rows {
		result = append(result, toNode(m))
	}
	return result, nil
}

func (r *GraphRepository) UpdateNode(ctx context.Context, id uint, patch domain.NodePatch) (domain.Node, error) {
	updates := map[string]any{}
	if patch.ManualName != nil {
		updates["manual_name"] = *patch.ManualName
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.X != nil {
		updates["position_x"] = *patch.X
	}
	if patch.Y != nil {
		updates["position_y"] = *patch.Y
	}
	if patch.SetReference {
		updates["reference_id"] = patch.ReferenceID
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&NodeModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return domain.Node{}, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.Node{}, domain.NewNotFoundError("node", id)
		}
	}
	return r.GetNode(ctx, id)
}

// DeleteNode removes the node; connections touching it cascade.
func (r *GraphRepository) DeleteNode(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&NodeModel{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("node", id)
	}
	return nil
}

// UpdateNodePositions applies every position in one transaction. An unknown
// node id rolls back the whole batch.
func (r *GraphRepository) UpdateNodePositions(ctx context.Context, positions []domain.NodePosition) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range positions {
			res := tx.Model(&NodeModel{}).Where("id = ?", p.ID).Updates(map[string]any{
				"position_x": p.X,
				"position_y": p.Y,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return domain.NewNotFoundError("node", p.ID)
			}
		}
		return nil
	})
	return translate(err)
}

func toNode(m NodeModel) domain.Node {
	n := domain.Node{
		ID:          m.ID,
		TopicID:     m.TopicID,
		CreatorID:   m.CreatorID,
		ManualName:  m.ManualName,
		ReferenceID: m.ReferenceID,
		Description: m.Description,
		X:           m.X,
		Y:           m.Y,
		CreatedAt:   m.CreatedAt,
	}
	if m.Reference != nil {
		ref := toReference(*m.Reference)
		n.Reference = &ref
	}
	return n
}
