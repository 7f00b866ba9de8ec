package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iksnae/persona-chat/internal"
)

func newSession(t *testing.T, gw internal.Gateway) *internal.ConversationSession {
	t.Helper()
	s, err := internal.NewConversationSession(internal.CreateTestCatalog(), gw)
	require.NoError(t, err)
	return s
}

func TestRegistry_AddGetDelete(t *testing.T) {
	r := NewRegistry(time.Minute)
	s := newSession(t, internal.NewScriptedGateway(internal.Done()))

	id := r.Add(s)
	assert.Len(t, id, 36)

	got, ok := r.Get(id)
	require.True(t, ok)
	assert.Same(t, s, got)

	assert.True(t, r.Delete(id))
	assert.False(t, r.Delete(id))
	_, ok = r.Get(id)
	assert.False(t, ok)
}

func TestRegistry_Prune(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(10 * time.Minute)
	r.now = func() time.Time { return now }

	stale := r.Add(newSession(t, internal.NewScriptedGateway(internal.Done())))
	now = now.Add(8 * time.Minute)
	fresh := r.Add(newSession(t, internal.NewScriptedGateway(internal.Done())))
	now = now.Add(5 * time.Minute)

	assert.Equal(t, 1, r.Prune())
	_, ok := r.Get(stale)
	assert.False(t, ok)
	_, ok = r.Get(fresh)
	assert.True(t, ok)
}

func TestRegistry_PruneDisabled(t *testing.T) {
	r := NewRegistry(0)
	r.Add(newSession(t, internal.NewScriptedGateway(internal.Done())))
	r.now = func() time.Time { return time.Now().Add(24 * time.Hour) }
	assert.Equal(t, 0, r.Prune())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_DeleteCancelsTurn(t *testing.T) {
	gw := internal.NewScriptedGateway(internal.Fragment("never"), internal.Done()).PauseAt(0)
	s := newSession(t, gw)
	r := NewRegistry(time.Minute)
	id := r.Add(s)

	errc := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "hello")
		errc <- err
	}()
	<-gw.Reached()

	require.True(t, r.Delete(id))
	err := <-errc
	var gwErr *internal.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, internal.FailureCanceled, gwErr.Kind)
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Add(newSession(t, internal.NewScriptedGateway(internal.Done())))
	r.Add(newSession(t, internal.NewScriptedGateway(internal.Done())))

	r.CloseAll()
	assert.Equal(t, 0, r.Len())
}
