package application

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"go.uber.org/zap"
)

type CreateTopicInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

type TopicResult struct {
	Topic   domain.Topic `json:"topic"`
	Warning string       `json:"warning,omitempty"`
}

type TopicService struct {
	repo    domain.TopicRepository
	ledger  *Ledger
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewTopicService(repo domain.TopicRepository, ledger *Ledger, logger *zap.Logger, m *metrics.Collector) *TopicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TopicService{repo: repo, ledger: ledger, logger: logger.Named("topics"), metrics: m}
}

// CreateTopic stores the topic with a zero counter and marks the creator's
// interaction record. Creating a topic does not move its counter.
func (s *TopicService) CreateTopic(ctx context.Context, actor domain.Identity, name string) (result TopicResult, err error) {
	defer func() { s.metrics.ObserveMutation("topic.create", err) }()

	if err := requireActor(actor); err != nil {
		return TopicResult{}, err
	}
	in := CreateTopicInput{Name: strings.TrimSpace(name)}
	if err := validateInput(in); err != nil {
		return TopicResult{}, err
	}

	topic, err := s.repo.CreateTopic(ctx, domain.Topic{Name: in.Name, CreatorID: actor.User.ID})
	if err != nil {
		return TopicResult{}, err
	}

	warning := s.ledger.recordAfterWrite(ctx, actor.User.ID, topic.ID, domain.ActionCreatedTopic)
	s.logger.Info("topic created", zap.Uint("topic_id", topic.ID), zap.Uint("creator_id", actor.User.ID))
	return TopicResult{Topic: topic, Warning: warning}, nil
}

// Search matches name case-insensitively, newest first. An empty query lists
// every topic.
func (s *TopicService) Search(ctx context.Context, query string, limit int) ([]domain.Topic, error) {
	return s.repo.SearchTopics(ctx, strings.TrimSpace(query), clampLimit(limit))
}

func (s *TopicService) GetTopic(ctx context.Context, id uint) (domain.Topic, error) {
	return s.repo.GetTopic(ctx, id)
}

// DeleteTopic removes the topic and, through store cascades, its nodes,
// connections, posts and interaction records.
func (s *TopicService) DeleteTopic(ctx context.Context, actor domain.Identity, id uint) (err error) {
	defer func() { s.metrics.ObserveMutation("topic.delete", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := s.repo.DeleteTopic(ctx, id); err != nil {
		return err
	}
	s.logger.Info("topic deleted", zap.Uint("topic_id", id), zap.Uint("actor_id", actor.User.ID))
	return nil
}
