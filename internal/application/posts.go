package application

import (
	"context"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"go.uber.org/zap"
)

type CreatePostInput struct {
	TopicID uint   `json:"topic_id" validate:"required"`
	Content string `json:"content" validate:"required,max=500"`
}

type PostResult struct {
	Post    domain.Post `json:"post"`
	Warning string      `json:"warning,omitempty"`
}

type PostService struct {
	repo    domain.PostRepository
	ledger  *Ledger
	logger  *zap.Logger
	metrics *metrics.Collector
}

func NewPostService(repo domain.PostRepository, ledger *Ledger, logger *zap.Logger, m *metrics.Collector) *PostService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostService{repo: repo, ledger: ledger, logger: logger.Named("posts"), metrics: m}
}

// CreatePost appends a post and records POSTED. A ledger failure is returned
// as a warning and the post stays.
func (s *PostService) CreatePost(ctx context.Context, actor domain.Identity, in CreatePostInput) (result PostResult, err error) {
	defer func() { s.metrics.ObserveMutation("post.create", err) }()

	if err := requireActor(actor); err != nil {
		return PostResult{}, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateInput(in); err != nil {
		return PostResult{}, err
	}

	post, err := s.repo.CreatePost(ctx, domain.Post{TopicID: in.TopicID, UserID: actor.User.ID, Content: in.Content})
	if err != nil {
		return PostResult{}, err
	}

	warning := s.ledger.recordAfterWrite(ctx, actor.User.ID, post.TopicID, domain.ActionPosted)
	return PostResult{Post: post, Warning: warning}, nil
}

func (s *PostService) ListPosts(ctx context.Context, topicID *uint, limit int) ([]domain.Post, error) {
	return s.repo.ListPosts(ctx, topicID, clampLimit(limit))
}

func (s *PostService) GetPost(ctx context.Context, id uint) (domain.Post, error) {
	return s.repo.GetPost(ctx, id)
}

func (s *PostService) DeletePost(ctx context.Context, actor domain.Identity, id uint) (err error) {
	defer func() { s.metrics.ObserveMutation("post.delete", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return err
	}
	if post.UserID != actor.User.ID {
		return domain.NewAuthorizationError("only the author can delete a post")
	}
	return s.repo.DeletePost(ctx, id)
}
