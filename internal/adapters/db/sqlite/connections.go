package sqlite

import (
	"context"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
)

func (r *GraphRepository) CreateConnection(ctx context.Context, value domain.Connection) (domain.Connection, error) {
	direction := value.Direction
	if direction == "" {
		direction = domain.DirectionUndirected
	}
	m := ConnectionModel{
		TopicID:      value.TopicID,
		FirstNodeID:  value.FirstNodeID,
		SecondNodeID: value.SecondNodeID,
		Relation:     value.Relation,
		Direction:    string(direction),
		CreatorID:    value.CreatorID,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Connection{}, translate(err)
	}
	return toConnection(m), nil
}

func (r *GraphRepository) GetConnection(ctx context.Context, id uint) (domain.Connection, error) {
	var m ConnectionModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Connection{}, translateLookup(err, "connection", id)
	}
	return toConnection(m), nil
}

func (r *GraphRepository) ListConnections(ctx context.Context, topicID *uint, limit int) ([]domain.Connection, error) {
	q := r.db.WithContext(ctx).Model(&ConnectionModel{})
	if topicID != nil {
		q = q.Where("topic_id = ?", *topicID)
	}

	rows := make([]ConnectionModel, 0)
	if err := q.Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	result := make([]domain.Connection, 0, len(rows))
	for _, m := range rows {
		result = append(result, toConnection(m))
	}
	return result, nil
}

func (r *GraphRepository) UpdateConnection(ctx context.Context, id uint, patch domain.ConnectionPatch) (domain.Connection, error) {
	updates := map[string]any{}
	if patch.FirstNodeID != nil {
		updates["first_node_id"] = *patch.FirstNodeID
	}
	if patch.SecondNodeID != nil {
		updates["second_node_id"] = *patch.SecondNodeID
	}
	if patch.Relation != nil {
		updates["relation"] = *patch.Relation
	}
	if patch.Direction != nil {
		updates["direction"] = string(*patch.Direction)
	}

	if len(updates) > 0 {
		res := r.db.WithContext(ctx).Model(&ConnectionModel{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return domain.Connection{}, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.Connection{}, domain.NewNotFoundError("connection", id)
		}
	}
	return r.GetConnection(ctx, id)
}

func (r *GraphRepository) DeleteConnection(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&ConnectionModel{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("connection", id)
	}
	return nil
}

func toConnection(m ConnectionModel) domain.Connection {
	return domain.Connection{
		ID:           m.ID,
		TopicID:      m.TopicID,
		FirstNodeID:  m.FirstNodeID,
		SecondNodeID: m.SecondNodeID,
		Relation:     m.Relation,
		Direction:    domain.Direction(m.Direction),
		CreatorID:    m.CreatorID,
		CreatedAt:    m.CreatedAt,
	}
}
