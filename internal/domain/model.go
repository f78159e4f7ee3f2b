package domain

import (
	"strconv"
	"strings"
	"time"
)

type Direction string

const (
	DirectionUndirected    Direction = "UNDIRECTED"
	DirectionFirstToSecond Direction = "FIRST_TO_SECOND"
	DirectionSecondToFirst Direction = "SECOND_TO_FIRST"
)

func (d Direction) Valid() bool {
	switch d {
	case DirectionUndirected, DirectionFirstToSecond, DirectionSecondToFirst:
		return true
	}
	return false
}

// ActionKind names a contribution tracked by the interaction ledger.
type ActionKind string

const (
	ActionCreatedTopic ActionKind = "CREATED_TOPIC"
	ActionPosted       ActionKind = "POSTED"
	ActionAddedNode    ActionKind = "ADDED_NODE"
)

func (k ActionKind) Valid() bool {
	switch k {
	case ActionCreatedTopic, ActionPosted, ActionAddedNode:
		return true
	}
	return false
}

// Counted reports whether first setting this flag bumps the topic's
// interaction counter. A creator opening a topic is recorded but not counted.
func (k ActionKind) Counted() bool {
	return k == ActionPosted || k == ActionAddedNode
}

type Topic struct {
	ID               uint
	Name             string
	CreatorID        uint
	InteractionCount int64
	CreatedAt        time.Time
}

type Reference struct {
	ExternalID  string
	Label       string
	Description string
	CreatedAt   time.Time
}

type Node struct {
	ID          uint
	TopicID     uint
	CreatorID   uint
	ManualName  string
	ReferenceID *string
	Reference   *Reference
	Description string
	X           float64
	Y           float64
	CreatedAt   time.Time
}

// DisplayName falls back from the manual name to the reference label.
func (n Node) DisplayName() string {
	if strings.TrimSpace(n.ManualName) != "" {
		return n.ManualName
	}
	if n.Reference != nil && strings.TrimSpace(n.Reference.Label) != "" {
		return n.Reference.Label
	}
	return "Node " + strconv.FormatUint(uint64(n.ID), 10)
}

// NodePatch carries the fields an update touches. ReferenceID is only applied
// when SetReference is true; a nil ReferenceID then clears the link.
type NodePatch struct {
	ManualName   *string
	Description  *string
	X            *float64
	Y            *float64
	SetReference bool
	ReferenceID  *string
}

type NodePosition struct {
	ID uint    `json:"id" validate:"required"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type Connection struct {
	ID           uint
	TopicID      uint
	FirstNodeID  uint
	SecondNodeID uint
	Relation     string
	Direction    Direction
	CreatorID    uint
	CreatedAt    time.Time
}

type ConnectionPatch struct {
	FirstNodeID  *uint
	SecondNodeID *uint
	Relation     *string
	Direction    *Direction
}

type InteractionRecord struct {
	UserID       uint
	TopicID      uint
	TopicName    string
	CreatedTopic bool
	Posted       bool
	AddedNode    bool
	LastActionAt time.Time
	CreatedAt    time.Time
}

// Has reports whether the flag for kind is already set.
func (r InteractionRecord) Has(kind ActionKind) bool {
	switch kind {
	case ActionCreatedTopic:
		return r.CreatedTopic
	case ActionPosted:
		return r.Posted
	case ActionAddedNode:
		return r.AddedNode
	}
	return false
}

type Post struct {
	ID        uint
	TopicID   uint
	UserID    uint
	Content   string
	CreatedAt time.Time
}

type User struct {
	ID           uint
	Email        string
	PasswordHash string
	AnonymizedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type APIToken struct {
	ID        uint
	UserID    uint
	Name      string
	TokenHash string
	ExpiresAt *time.Time
	CreatedAt time.Time
}

type Identity struct {
	User User
}

// Authenticated is false for the zero Identity.
func (i Identity) Authenticated() bool {
	return i.User.ID != 0
}
