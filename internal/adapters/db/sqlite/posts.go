package sqlite

import (
	"context"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
)

func (r *GraphRepository) CreatePost(ctx context.Context, value domain.Post) (domain.Post, error) {
	m := PostModel{TopicID: value.TopicID, UserID: value.UserID, Content: value.Content}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Post{}, translate(err)
	}
	return toPost(m), nil
}

func (r *GraphRepository) GetPost(ctx context.Context, id uint) (domain.Post, error) {
	var m PostModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Post{}, translateLookup(err, "post", id)
	}
	return toPost(m), nil
}

func (r *GraphRepository) ListPosts(ctx context.Context, topicID *uint, limit int) ([]domain.Post, error) {
	q := r.db.WithContext(ctx).Model(&PostModel{})
	if topicID != nil {
		q = q.Where("topic_id = ?", *topicID)
	}

	rows := make([]PostModel, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	result := make([]domain.Post, 0, len(rows))
	for _, m := range rows {
		result = append(result, toPost(m))
	}
	return result, nil
}

func (r *GraphRepository) DeletePost(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&PostModel{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("post", id)
	}
	return nil
}

func toPost(m PostModel) domain.Post {
	return domain.Post{ID: m.ID, TopicID: m.TopicID, UserID: m.UserID, Content: m.Content, CreatedAt: m.CreatedAt}
}
