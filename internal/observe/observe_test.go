package observe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed before a value arrived")
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for emission")
		panic("unreachable")
	}
}

func TestValueBroadcast(t *testing.T) {
	v := New[string]()
	defer v.Close()

	a, cancelA := v.Subscribe()
	b, cancelB := v.Subscribe()
	defer cancelA()
	defer cancelB()

	assert.True(t, v.Set("one"))
	assert.Equal(t, "one", recv(t, a))
	assert.Equal(t, "one", recv(t, b))

	cur, ok := v.Get()
	assert.True(t, ok)
	assert.Equal(t, "one", cur)
}

func TestValueLateSubscriberGetsCurrent(t *testing.T) {
	v := New[int]()
	defer v.Close()

	v.Set(42)
	ch, cancel := v.Subscribe()
	defer cancel()

	assert.Equal(t, 42, recv(t, ch))
}

func TestDistinctSuppressesDuplicates(t *testing.T) {
	v := NewDistinct[string]()
	defer v.Close()

	ch, cancel := v.Subscribe()
	defer cancel()

	assert.True(t, v.Set("tok"))
	assert.False(t, v.Set("tok"), "duplicate should be suppressed")
	assert.True(t, v.Set("tok2"))

	assert.Equal(t, "tok", recv(t, ch))
	assert.Equal(t, "tok2", recv(t, ch))
}

func TestCancelStopsDelivery(t *testing.T) {
	v := New[int]()
	defer v.Close()

	ch, cancel := v.Subscribe()
	cancel()
	cancel() // second cancel is a no-op

	v.Set(1)
	_, ok := <-ch
	assert.False(t, ok, "cancelled subscriber channel should be closed")
}

func TestCloseStopsEverything(t *testing.T) {
	v := New[int]()
	ch, _ := v.Subscribe()
	v.Close()
	v.Close() // idempotent

	_, ok := <-ch
	assert.False(t, ok)
	assert.False(t, v.Set(5))

	late, _ := v.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribe after close yields a closed channel")
}
