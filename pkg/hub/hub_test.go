package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	require.Eventually(t, h.IsRunning, time.Second, 5*time.Millisecond)
	return h
}

func register(t *testing.T, h *Hub, buffer int) *Client {
	t.Helper()
	c := &Client{hub: h, send: make(chan Message, buffer)}
	h.register <- c
	return c
}

func TestNew(t *testing.T) {
	h := New("preview", nil)
	if h.Name() != "preview" {
		t.Errorf("Name() = %q, want preview", h.Name())
	}
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not be running before Run")
	}
}

func TestBroadcast(t *testing.T) {
	h := startHub(t)
	a := register(t, h, 4)
	b := register(t, h, 4)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]int{"frame": 7}))

	for _, c := range []*Client{a, b} {
		select {
		case msg := <-c.send:
			assert.Equal(t, Text, msg.Kind)
			assert.JSONEq(t, `{"frame":7}`, string(msg.Data))
		case <-time.After(time.Second):
			t.Fatal("client did not receive broadcast")
		}
	}
}

func TestBroadcastBinary(t *testing.T) {
	h := startHub(t)
	c := register(t, h, 1)

	h.BroadcastBinary([]byte{1, 2, 3})

	select {
	case msg := <-c.send:
		assert.Equal(t, Binary, msg.Kind)
		assert.Equal(t, []byte{1, 2, 3}, msg.Data)
	case <-time.After(time.Second):
		t.Fatal("client did not receive broadcast")
	}
}

func TestSlowClientDropped(t *testing.T) {
	h := startHub(t)
	slow := register(t, h, 1)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.BroadcastBinary([]byte{1})
	h.BroadcastBinary([]byte{2})

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	// The queued message is still delivered, then the channel is closed.
	msg, ok := <-slow.send
	require.True(t, ok)
	assert.Equal(t, []byte{1}, msg.Data)
	_, ok = <-slow.send
	assert.False(t, ok)
	assert.False(t, slow.Send(NewBinaryMessage([]byte{3})))
}

func TestUnregister(t *testing.T) {
	h := startHub(t)
	c := register(t, h, 1)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	h.unregister <- c
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-c.send
	assert.False(t, ok, "send channel should be closed")
}

func TestRunStopsOnCancel(t *testing.T) {
	h := New("test", nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	require.Eventually(t, h.IsRunning, time.Second, 5*time.Millisecond)

	c := register(t, h, 1)
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, h.IsRunning())
	_, ok := <-c.send
	assert.False(t, ok, "clients should be closed when the hub stops")

	// Registering after stop must not block.
	late := NewClient(h, nil)
	assert.False(t, late.Send(NewBinaryMessage(nil)))
}

func TestSendDirect(t *testing.T) {
	h := New("test", nil)
	c := newClient(h, nil)

	assert.True(t, c.Send(NewJSONMessage([]byte(`{}`))))
	c.close()
	c.close()
	assert.False(t, c.Send(NewJSONMessage([]byte(`{}`))))
}
