package sqlite

import "time"

type UserModel struct {
	ID           uint   `gorm:"primaryKey"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null;default:''"`
	AnonymizedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string { return "users" }

type APITokenModel struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	TokenHash string `gorm:"not null;uniqueIndex"`
	ExpiresAt *time.Time
	CreatedAt time.Time
}

func (APITokenModel) TableName() string { return "api_tokens" }

type TopicModel struct {
	ID               uint   `gorm:"primaryKey"`
	Name             string `gorm:"not null"`
	CreatorID        uint   `gorm:"not null;index"`
	InteractionCount int64  `gorm:"not null;default:0"`
	CreatedAt        time.Time
}

func (TopicModel) TableName() string { return "topics" }

// ReferenceModel caches an external knowledge-base entry. The table keeps its
// historical name.
type ReferenceModel struct {
	ExternalID  string `gorm:"primaryKey;column:external_id"`
	Label       string `gorm:"not null;default:''"`
	Description string `gorm:"not null;default:''"`
	CreatedAt   time.Time
}

func (ReferenceModel) TableName() string { return "wikis" }

type NodeModel struct {
	ID          uint `gorm:"primaryKey"`
	TopicID     uint `gorm:"not null;index"`
	CreatorID   uint `gorm:"not null"`
	ManualName  string
	ReferenceID *string         `gorm:"index"`
	Reference   *ReferenceModel `gorm:"foreignKey:ReferenceID;references:ExternalID"`
	Description string
	X           float64 `gorm:"column:position_x;not null;default:0"`
	Y           float64 `gorm:"column:position_y;not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (NodeModel) TableName() string { return "nodes" }

type ConnectionModel struct {
	ID           uint   `gorm:"primaryKey"`
	TopicID      uint   `gorm:"not null;index"`
	FirstNodeID  uint   `gorm:"not null;index"`
	SecondNodeID uint   `gorm:"not null;index"`
	Relation     string `gorm:"not null;default:''"`
	Direction    string `gorm:"not null;default:'UNDIRECTED'"`
	CreatorID    uint   `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (ConnectionModel) TableName() string { return "connections" }

type InteractionRecordModel struct {
	UserID       uint `gorm:"primaryKey;autoIncrement:false"`
	TopicID      uint `gorm:"primaryKey;autoIncrement:false"`
	CreatedTopic bool `gorm:"not null;default:false"`
	Posted       bool `gorm:"not null;default:false"`
	AddedNode    bool `gorm:"not null;default:false"`
	LastActionAt time.Time
	CreatedAt    time.Time
}

func (InteractionRecordModel) TableName() string { return "interaction_records" }

type PostModel struct {
	ID        uint   `gorm:"primaryKey"`
	TopicID   uint   `gorm:"not null;index"`
	UserID    uint   `gorm:"not null;index"`
	Content   string `gorm:"not null"`
	CreatedAt time.Time
}

func (PostModel) TableName() string { return "posts" }
