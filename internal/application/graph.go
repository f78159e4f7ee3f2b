package application

import (
	"context"
	"errors"
	"strings"

	"github.com/atvirokodosprendimai/topicgraph/internal/domain"
	"github.com/atvirokodosprendimai/topicgraph/internal/metrics"
	"go.uber.org/zap"
)

type CreateNodeInput struct {
	TopicID              uint    `json:"topic_id" validate:"required"`
	ManualName           string  `json:"manual_name" validate:"max=200"`
	ReferenceID          string  `json:"reference_id" validate:"max=255"`
	ReferenceLabel       string  `json:"reference_label" validate:"max=255"`
	ReferenceDescription string  `json:"reference_description" validate:"max=1000"`
	Description          string  `json:"description" validate:"max=2000"`
	X                    float64 `json:"x"`
	Y                    float64 `json:"y"`
}

// UpdateNodeInput leaves nil fields untouched. A ReferenceID pointing at an
// empty string unlinks the node from its reference.
type UpdateNodeInput struct {
	ManualName           *string  `json:"manual_name,omitempty" validate:"omitempty,max=200"`
	Description          *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	ReferenceID          *string  `json:"reference_id,omitempty" validate:"omitempty,max=255"`
	ReferenceLabel       string   `json:"reference_label,omitempty" validate:"max=255"`
	ReferenceDescription string   `json:"reference_description,omitempty" validate:"max=1000"`
	X                    *float64 `json:"x,omitempty"`
	Y                    *float64 `json:"y,omitempty"`
}

type UpdatePositionsInput struct {
	Positions []domain.NodePosition `json:"positions" validate:"required,min=1,dive"`
}

type CreateConnectionInput struct {
	TopicID      uint             `json:"topic_id" validate:"required"`
	FirstNodeID  uint             `json:"first_node_id" validate:"required"`
	SecondNodeID uint             `json:"second_node_id" validate:"required"`
	Relation     string           `json:"relation" validate:"max=200"`
	Direction    domain.Direction `json:"direction" validate:"omitempty,oneof=UNDIRECTED FIRST_TO_SECOND SECOND_TO_FIRST"`
}

type UpdateConnectionInput struct {
	FirstNodeID  *uint             `json:"first_node_id,omitempty"`
	SecondNodeID *uint             `json:"second_node_id,omitempty"`
	Relation     *string           `json:"relation,omitempty" validate:"omitempty,max=200"`
	Direction    *domain.Direction `json:"direction,omitempty" validate:"omitempty,oneof=UNDIRECTED FIRST_TO_SECOND SECOND_TO_FIRST"`
}

// NodeResult carries a committed node plus a warning when the interaction
// ledger could not be updated afterwards.
type NodeResult struct {
	Node    domain.Node `json:"node"`
	Warning string      `json:"warning,omitempty"`
}

type DeleteResult struct {
	Warning string `json:"warning,omitempty"`
}

type GraphService struct {
	repo     domain.GraphRepository
	resolver *Resolver
	ledger   *Ledger
	logger   *zap.Logger
	metrics  *metrics.Collector
}

func NewGraphService(repo domain.GraphRepository, resolver *Resolver, ledger *Ledger, logger *zap.Logger, m *metrics.Collector) *GraphService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphService{repo: repo, resolver: resolver, ledger: ledger, logger: logger.Named("graph"), metrics: m}
}

func (s *GraphService) CreateNode(ctx context.Context, actor domain.Identity, in CreateNodeInput) (result NodeResult, err error) {
	defer func() { s.metrics.ObserveMutation("node.create", err) }()

	if err := requireActor(actor); err != nil {
		return NodeResult{}, err
	}
	if err := validateInput(in); err != nil {
		return NodeResult{}, err
	}

	node := domain.Node{
		TopicID:     in.TopicID,
		CreatorID:   actor.User.ID,
		ManualName:  strings.TrimSpace(in.ManualName),
		Description: strings.TrimSpace(in.Description),
		X:           in.X,
		Y:           in.Y,
	}
	if strings.TrimSpace(in.ReferenceID) != "" {
		ref, err := s.resolver.Resolve(ctx, in.ReferenceID, in.ReferenceLabel, in.ReferenceDescription)
		if err != nil {
			return NodeResult{}, err
		}
		node.ReferenceID = &ref.ExternalID
	}

	created, err := s.repo.CreateNode(ctx, node)
	if err != nil {
		return NodeResult{}, err
	}

	warning := s.ledger.recordAfterWrite(ctx, actor.User.ID, created.TopicID, domain.ActionAddedNode)
	s.logger.Debug("node created", zap.Uint("node_id", created.ID), zap.Uint("topic_id", created.TopicID))
	return NodeResult{Node: created, Warning: warning}, nil
}

func (s *GraphService) GetNode(ctx context.Context, id uint) (domain.Node, error) {
	return s.repo.GetNode(ctx, id)
}

func (s *GraphService) ListNodes(ctx context.Context, topicID *uint, limit int) ([]domain.Node, error) {
	return s.repo.ListNodes(ctx, topicID, clampLimit(limit))
}

// UpdateNode counts as ADDED_NODE in the ledger; edits and additions share
// one flag.
func (s *GraphService) UpdateNode(ctx context.Context, actor domain.Identity, id uint, in UpdateNodeInput) (result NodeResult, err error) {
	defer func() { s.metrics.ObserveMutation("node.update", err) }()

	if err := requireActor(actor); err != nil {
		return NodeResult{}, err
	}
	if err := validateInput(in); err != nil {
		return NodeResult{}, err
	}

	existing, err := s.repo.GetNode(ctx, id)
	if err != nil {
		return NodeResult{}, err
	}

	patch := domain.NodePatch{X: in.X, Y: in.Y}
	if in.ManualName != nil {
		v := strings.TrimSpace(*in.ManualName)
		patch.ManualName = &v
	}
	if in.Description != nil {
		v := strings.TrimSpace(*in.Description)
		patch.Description = &v
	}
	if in.ReferenceID != nil {
		patch.SetReference = true
		if strings.TrimSpace(*in.ReferenceID) != "" {
			ref, err := s.resolver.Resolve(ctx, *in.ReferenceID, in.ReferenceLabel, in.ReferenceDescription)
			if err != nil {
				return NodeResult{}, err
			}
			patch.ReferenceID = &ref.ExternalID
		}
	}

	updated, err := s.repo.UpdateNode(ctx, id, patch)
	if err != nil {
		return NodeResult{}, err
	}

	warning := s.ledger.recordAfterWrite(ctx, actor.User.ID, existing.TopicID, domain.ActionAddedNode)
	return NodeResult{Node: updated, Warning: warning}, nil
}

// DeleteNode records the action before deleting so the interaction survives
// the node. Connections touching the node are removed by the store.
func (s *GraphService) DeleteNode(ctx context.Context, actor domain.Identity, id uint) (result DeleteResult, err error) {
	defer func() { s.metrics.ObserveMutation("node.delete", err) }()

	if err := requireActor(actor); err != nil {
		return DeleteResult{}, err
	}

	existing, err := s.repo.GetNode(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	warning := s.ledger.recordAfterWrite(ctx, actor.User.ID, existing.TopicID, domain.ActionAddedNode)
	if err := s.repo.DeleteNode(ctx, id); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Warning: warning}, nil
}

// UpdatePositions applies a layout batch atomically. Moving nodes is not a
// contribution and is not recorded in the ledger.
func (s *GraphService) UpdatePositions(ctx context.Context, actor domain.Identity, positions []domain.NodePosition) (err error) {
	defer func() { s.metrics.ObserveMutation("node.positions", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	if err := validateInput(UpdatePositionsInput{Positions: positions}); err != nil {
		return err
	}
	return s.repo.UpdateNodePositions(ctx, positions)
}

func (s *GraphService) CreateConnection(ctx context.Context, actor domain.Identity, in CreateConnectionInput) (result domain.Connection, err error) {
	defer func() { s.metrics.ObserveMutation("connection.create", err) }()

	if err := requireActor(actor); err != nil {
		return domain.Connection{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Connection{}, err
	}
	if err := s.checkEndpoint(ctx, "first_node_id", in.FirstNodeID, in.TopicID); err != nil {
		return domain.Connection{}, err
	}
	if err := s.checkEndpoint(ctx, "second_node_id", in.SecondNodeID, in.TopicID); err != nil {
		return domain.Connection{}, err
	}

	direction := in.Direction
	if direction == "" {
		direction = domain.DirectionUndirected
	}
	return s.repo.CreateConnection(ctx, domain.Connection{
		TopicID:      in.TopicID,
		FirstNodeID:  in.FirstNodeID,
		SecondNodeID: in.SecondNodeID,
		Relation:     strings.TrimSpace(in.Relation),
		Direction:    direction,
		CreatorID:    actor.User.ID,
	})
}

func (s *GraphService) GetConnection(ctx context.Context, id uint) (domain.Connection, error) {
	return s.repo.GetConnection(ctx, id)
}

func (s *GraphService) ListConnections(ctx context.Context, topicID *uint, limit int) ([]domain.Connection, error) {
	return s.repo.ListConnections(ctx, topicID, clampLimit(limit))
}

func (s *GraphService) UpdateConnection(ctx context.Context, actor domain.Identity, id uint, in UpdateConnectionInput) (result domain.Connection, err error) {
	defer func() { s.metrics.ObserveMutation("connection.update", err) }()

	if err := requireActor(actor); err != nil {
		return domain.Connection{}, err
	}
	if err := validateInput(in); err != nil {
		return domain.Connection{}, err
	}

	existing, err := s.repo.GetConnection(ctx, id)
	if err != nil {
		return domain.Connection{}, err
	}
	if in.FirstNodeID != nil {
		if err := s.checkEndpoint(ctx, "first_node_id", *in.FirstNodeID, existing.TopicID); err != nil {
			return domain.Connection{}, err
		}
	}
	if in.SecondNodeID != nil {
		if err := s.checkEndpoint(ctx, "second_node_id", *in.SecondNodeID, existing.TopicID); err != nil {
			return domain.Connection{}, err
		}
	}

	patch := domain.ConnectionPatch{
		FirstNodeID:  in.FirstNodeID,
		SecondNodeID: in.SecondNodeID,
		Direction:    in.Direction,
	}
	if in.Relation != nil {
		v := strings.TrimSpace(*in.Relation)
		patch.Relation = &v
	}
	return s.repo.UpdateConnection(ctx, id, patch)
}

func (s *GraphService) DeleteConnection(ctx context.Context, actor domain.Identity, id uint) (err error) {
	defer func() { s.metrics.ObserveMutation("connection.delete", err) }()

	if err := requireActor(actor); err != nil {
		return err
	}
	return s.repo.DeleteConnection(ctx, id)
}

// checkEndpoint enforces that a connection only joins nodes of its own topic.
func (s *GraphService) checkEndpoint(ctx context.Context, field string, nodeID, topicID uint) error {
	if nodeID == 0 {
		return domain.NewValidationError("%s is required", field)
	}
	node, err := s.repo.GetNode(ctx, nodeID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewValidationError("%s: node %d does not exist", field, nodeID)
	}
	if err != nil {
		return err
	}
	if node.TopicID != topicID {
		return domain.NewValidationError("%s: node %d belongs to topic %d, not %d", field, nodeID, node.TopicID, topicID)
	}
	return nil
}
