package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	mu         sync.Mutex
	handlers   map[int64]func(string, []byte)
	cancelled  []int64
	publishErr error
}

func newFakeBus() *fakeBus { return &fakeBus{handlers: map[int64]func(string, []byte){}} }

func (b *fakeBus) PublishMemberEvent(memberID int64, event string, payload []byte) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.mu.Lock()
	h := b.handlers[memberID]
	b.mu.Unlock()
	if h != nil {
		h(event, payload)
	}
	return nil
}

func (b *fakeBus) SubscribeMember(memberID int64, handler func(string, []byte)) (func(), error) {
	b.mu.Lock()
	b.handlers[memberID] = handler
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.handlers, memberID)
		b.cancelled = append(b.cancelled, memberID)
		b.mu.Unlock()
	}, nil
}

func testClient(id string, memberID int64) *Client {
	return &Client{ID: id, MemberID: memberID, send: make(chan WSMessage, 4)}
}

func TestPublishToMemberLocal(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	tab1, tab2, other := testClient("a", 7), testClient("b", 7), testClient("c", 8)
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(other)

	hub.PublishToMember(7, EventMessage, map[string]int64{"messageId": 3})

	for _, c := range []*Client{tab1, tab2} {
		require.Len(t, c.send, 1)
		msg := <-c.send
		assert.Equal(t, EventMessage, msg.Event)
		var data map[string]int64
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		assert.Equal(t, int64(3), data["messageId"])
	}
	assert.Len(t, other.send, 0)
}

func TestPublishThroughBus(t *testing.T) {
	bus := newFakeBus()
	hub := NewHub(nil, bus, bus)
	c := testClient("a", 7)
	hub.Register(c)

	hub.PublishToMember(7, EventTyping, map[string]int64{"from": 9})
	require.Len(t, c.send, 1)
	assert.Equal(t, EventTyping, (<-c.send).Event)

	hub.Unregister(c)
	assert.False(t, hub.Connected(7))
	assert.Equal(t, []int64{7}, bus.cancelled)
}

func TestPublishFallsBackWhenBusFails(t *testing.T) {
	bus := newFakeBus()
	bus.publishErr = errors.New("redis down")
	hub := NewHub(nil, bus, bus)
	c := testClient("a", 7)
	hub.Register(c)

	hub.PublishToMember(7, EventMessage, nil)
	assert.Len(t, c.send, 1)
}

func TestUnregisterKeepsOtherTabs(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	tab1, tab2 := testClient("a", 7), testClient("b", 7)
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Unregister(tab1)
	assert.True(t, hub.Connected(7))
	hub.Unregister(tab2)
	assert.False(t, hub.Connected(7))
}

func TestFullBufferDoesNotBlock(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	c := &Client{ID: "a", MemberID: 7, send: make(chan WSMessage, 1)}
	hub.Register(c)
	hub.PublishToMember(7, EventMessage, nil)
	hub.PublishToMember(7, EventMessage, nil)
	assert.Len(t, c.send, 1)
}
