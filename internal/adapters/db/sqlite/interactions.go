package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var flagColumns = map[domain.ActionKind]string{
	domain.ActionCreatedTopic: "created_topic",
	domain.ActionPosted:       "posted",
	domain.ActionAddedNode:    "added_node",
}

// RecordInteraction runs the ledger step in a single transaction: seed the
// (user, topic) record, lock it, flip the flag with a conditional update and,
// only when that update matched and the kind is counted, bump the topic
// counter. The returned bool reports whether the counter moved.
func (r *GraphRepository) RecordInteraction(ctx context.Context, userID, topicID uint, kind domain.ActionKind) (domain.InteractionRecord, bool, error) {
	column, ok := flagColumns[kind]
	if !ok {
		return domain.InteractionRecord{}, false, domain.NewValidationError("unknown action kind %q", kind)
	}

	var (
		out         InteractionRecordModel
		incremented bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		seed := InteractionRecordModel{UserID: userID, TopicID: topicID, LastActionAt: now, CreatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}

		var current InteractionRecordModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND topic_id = ?", userID, topicID).
			First(&current).Error; err != nil {
			return err
		}

		res := tx.Model(&InteractionRecordModel{}).
			Where("user_id = ? AND topic_id = ? AND "+column+" = ?", userID, topicID, false).
			Updates(map[string]any{column: true, "last_action_at": now})
		if res.Error != nil {
			return res.Error
		}
		transitioned := res.RowsAffected == 1
		incremented = transitioned && kind.Counted()

		if incremented {
			bump := tx.Model(&TopicModel{}).Where("id = ?", topicID).
				UpdateColumn("interaction_count", gorm.Expr("interaction_count + ?", 1))
			if bump.Error != nil {
				return bump.Error
			}
			if bump.RowsAffected == 0 {
				return domain.NewNotFoundError("topic", topicID)
			}
		} else if !transitioned {
			if err := tx.Model(&InteractionRecordModel{}).
				Where("user_id = ? AND topic_id = ?", userID, topicID).
				UpdateColumn("last_action_at", now).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ? AND topic_id = ?", userID, topicID).First(&out).Error
	})
	if err != nil {
		return domain.InteractionRecord{}, false, translate(err)
	}
	return toInteraction(out, ""), incremented, nil
}

func (r *GraphRepository) GetInteraction(ctx context.Context, userID, topicID uint) (domain.InteractionRecord, error) {
	rows, err := r.listInteractions(ctx, "ir.user_id = ? AND ir.topic_id = ?", userID, topicID)
	if err != nil {
		return domain.InteractionRecord{}, err
	}
	if len(rows) == 0 {
		return domain.InteractionRecord{}, domain.NewNotFoundError("interaction record", fmt.Sprintf("(user %d, topic %d)", userID, topicID))
	}
	return rows[0], nil
}

func (r *GraphRepository) ListInteractionsByUser(ctx context.Context, userID uint) ([]domain.InteractionRecord, error) {
	return r.listInteractions(ctx, "ir.user_id = ?", userID)
}

func (r *GraphRepository) ListInteractionsByTopic(ctx context.Context, topicID uint) ([]domain.InteractionRecord, error) {
	return r.listInteractions(ctx, "ir.topic_id = ?", topicID)
}

func (r *GraphRepository) listInteractions(ctx context.Context, where string, args ...any) ([]domain.InteractionRecord, error) {
	type row struct {
		InteractionRecordModel
		TopicName string
	}

	rows := make([]row, 0)
	err := r.db.WithContext(ctx).
		Table("interaction_records AS ir").
		Select("ir.*, t.name AS topic_name").
		Joins("JOIN topics t ON t.id = ir.topic_id").
		Where(where, args...).
		Order("ir.last_action_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	result := make([]domain.InteractionRecord, 0, len(rows))
	for _, m := range rows {
		result = append(result, toInteraction(m.InteractionRecordModel, m.TopicName))
	}
	return result, nil
}

func toInteraction(m InteractionRecordModel, topicName string) domain.InteractionRecord {
	return domain.InteractionRecord{
		UserID:       m.UserID,
		TopicID:      m.TopicID,
		TopicName:    topicName,
		CreatedTopic: m.CreatedTopic,
		Posted:       m.Posted,
		AddedNode:    m.AddedNode,
		LastActionAt: m.LastActionAt,
		CreatedAt:    m.CreatedAt,
	}
}
