package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistry(t *testing.T) {
	registry := NewSessionRegistry()
	connID := uuid.NewString()
	session := Session{UserID: uuid.New(), StoryID: uuid.New(), VersionID: uuid.New()}

	t.Run("get before set", func(t *testing.T) {
		_, ok := registry.Get(connID)
		assert.False(t, ok)
	})

	t.Run("set and get", func(t *testing.T) {
		registry.Set(connID, session)
		got, ok := registry.Get(connID)
		require.True(t, ok)
		assert.Equal(t, session, got)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("set overwrites previous binding", func(t *testing.T) {
		other := Session{UserID: session.UserID, StoryID: uuid.New(), VersionID: uuid.New()}
		registry.Set(connID, other)
		got, ok := registry.Get(connID)
		require.True(t, ok)
		assert.Equal(t, other.StoryID, got.StoryID)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("delete returns binding once", func(t *testing.T) {
		_, ok := registry.Delete(connID)
		assert.True(t, ok)
		_, ok = registry.Delete(connID)
		assert.False(t, ok)
		assert.Zero(t, registry.Len())
	})
}
