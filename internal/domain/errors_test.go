package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := NewNotFoundError("node", 42)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, "node 42 not found", err.Error())
}

func TestErrorSurvivesWrapping(t *testing.T) {
	cause := errors.New("FOREIGN KEY constraint failed")
	err := fmt.Errorf("create node: %w", NewReferenceError("topic does not exist", cause))

	assert.True(t, errors.Is(err, ErrReference))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindReference, KindOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestNodeDisplayName(t *testing.T) {
	n := Node{ID: 7}
	assert.Equal(t, "Node 7", n.DisplayName())

	n.Reference = &Reference{ExternalID: "Q42", Label: "Douglas Adams"}
	assert.Equal(t, "Douglas Adams", n.DisplayName())

	n.ManualName = "DNA"
	assert.Equal(t, "DNA", n.DisplayName())
}

func TestInteractionRecordHas(t *testing.T) {
	r := InteractionRecord{Posted: true}
	assert.True(t, r.Has(ActionPosted))
	assert.False(t, r.Has(ActionAddedNode))
	assert.False(t, r.Has(ActionKind("EDITED")))
	assert.False(t, ActionKind("EDITED").Valid())
	assert.True(t, DirectionSecondToFirst.Valid())
	assert.False(t, Direction("BOTH").Valid())
}

func TestOnlyContributionKindsAreCounted(t *testing.T) {
	assert.False(t, ActionCreatedTopic.Counted())
	assert.True(t, ActionPosted.Counted())
	assert.True(t, ActionAddedNode.Counted())
}
