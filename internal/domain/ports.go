package domain

import "context"

type TopicRepository interface {
	CreateTopic(ctx context.Context, value Topic) (Topic, error)
	GetTopic(ctx context.Context, id uint) (Topic, error)
	SearchTopics(ctx context.Context, query string, limit int) ([]Topic, error)
	DeleteTopic(ctx context.Context, id uint) error
}

type NodeRepository interface {
	CreateNode(ctx context.Context, value Node) (Node, error)
	GetNode(ctx context.Context, id uint) (Node, error)
	ListNodes(ctx context.Context, topicID *uint, limit int) ([]Node, error)
	UpdateNode(ctx context.Context, id uint, patch NodePatch) (Node, error)
	DeleteNode(ctx context.Context, id uint) error
	UpdateNodePositions(ctx context.Context, positions []NodePosition) error
}

type ConnectionRepository interface {
	CreateConnection(ctx context.Context, value Connection) (Connection, error)
	GetConnection(ctx context.Context, id uint) (Connection, error)
	ListConnections(ctx context.Context, topicID *uint, limit int) ([]Connection, error)
	UpdateConnection(ctx context.Context, id uint, patch ConnectionPatch) (Connection, error)
	DeleteConnection(ctx context.Context, id uint) error
}

type ReferenceRepository interface {
	// ResolveReference returns the stored reference for value.ExternalID,
	// inserting value first when none exists.
	ResolveReference(ctx context.Context, value Reference) (Reference, error)
	GetReference(ctx context.Context, externalID string) (Reference, error)
}

type InteractionRepository interface {
	// RecordInteraction sets the flag for kind on the (user, topic) record and
	// reports whether it was previously unset, in which case the topic counter
	// was incremented in the same transaction.
	RecordInteraction(ctx context.Context, userID, topicID uint, kind ActionKind) (InteractionRecord, bool, error)
	GetInteraction(ctx context.Context, userID, topicID uint) (InteractionRecord, error)
	ListInteractionsByUser(ctx context.Context, userID uint) ([]InteractionRecord, error)
	ListInteractionsByTopic(ctx context.Context, topicID uint) ([]InteractionRecord, error)
}

type PostRepository interface {
	CreatePost(ctx context.Context, value Post) (Post, error)
	GetPost(ctx context.Context, id uint) (Post, error)
	ListPosts(ctx context.Context, topicID *uint, limit int) ([]Post, error)
	DeletePost(ctx context.Context, id uint) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, value User) (User, error)
	CountUsers(ctx context.Context) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uint) (User, error)
	AnonymizeUser(ctx context.Context, id uint, scrubbedEmail string) (User, error)
	CreateAPIToken(ctx context.Context, value APIToken) (APIToken, error)
	GetAPITokenByTokenHash(ctx context.Context, tokenHash string) (APIToken, error)
	DeleteAPITokenByTokenHash(ctx context.Context, tokenHash string) error
}

type GraphRepository interface {
	TopicRepository
	NodeRepository
	ConnectionRepository
	ReferenceRepository
	InteractionRepository
	PostRepository
	UserRepository
}
