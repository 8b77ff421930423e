package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEntity(t *testing.T) {
	e := NewBaseEntity()

	assert.NotEqual(t, uuid.Nil, e.GetID())
	assert.False(t, e.GetCreatedAt().IsZero())
	assert.Equal(t, e.GetCreatedAt(), e.GetUpdatedAt())
}

func TestIncrementVersionTouchesTimestamp(t *testing.T) {
	a := NewBaseAggregateRoot()
	created := a.GetCreatedAt()
	before := a.GetUpdatedAt()

	a.IncrementVersion()

	assert.Equal(t, 2, a.GetVersion())
	assert.False(t, a.GetUpdatedAt().Before(before))
	assert.Equal(t, created, a.GetCreatedAt())
}
