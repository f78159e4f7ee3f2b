package sqlite

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type GraphRepository struct {
	db *gorm.DB
}

var _ domain.GraphRepository = (*GraphRepository)(nil)

// Open opens the database at path. Foreign keys are enabled on every pooled
// connection and write transactions take the write lock at BEGIN.
func Open(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        withPragmas(path),
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func withPragmas(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join([]string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=journal_mode(WAL)",
		"_txlock=immediate",
	}, "&")
}

func NewGraphRepository(db *gorm.DB) *GraphRepository {
	return &GraphRepository{db: db}
}

// Ping checks the underlying connection pool.
func (r *GraphRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *GraphRepository) CreateTopic(ctx context.Context, value domain.Topic) (domain.Topic, error) {
	m := TopicModel{Name: value.Name, CreatorID: value.CreatorID}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return domain.Topic{}, translate(err)
	}
	return toTopic(m), nil
}

func (r *GraphRepository) GetTopic(ctx context.Context, id uint) (domain.Topic, error) {
	var m TopicModel
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return domain.Topic{}, translateLookup(err, "topic", id)
	}
	return toTopic(m), nil
}

func (r *GraphRepository) SearchTopics(ctx context.Context, query string, limit int) ([]domain.Topic, error) {
	q := r.db.WithContext(ctx).Model(&TopicModel{})
	if strings.TrimSpace(query) != "" {
		like := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, like)
	}

	rows := make([]TopicModel, 0)
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	result := make([]domain.Topic, 0, len(rows))
	for _, m := range rows {
		result = append(result, toTopic(m))
	}
	return result, nil
}

// DeleteTopic removes the topic row. Nodes, connections, posts and
// interaction records go with it through ON DELETE CASCADE.
func (r *GraphRepository) DeleteTopic(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&TopicModel{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("topic", id)
	}
	return nil
}

func toTopic(m TopicModel) domain.Topic {
	return domain.Topic{
		ID:               m.ID,
		Name:             m.Name,
		CreatorID:        m.CreatorID,
		InteractionCount: m.InteractionCount,
		CreatedAt:        m.CreatedAt,
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
