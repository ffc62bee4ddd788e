package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pending(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestHubPublishMatchesTopics(t *testing.T) {
	hub := NewHub()
	containers, unsubContainers := hub.Subscribe(Containers)
	defer unsubContainers()
	items, unsubItems := hub.Subscribe(Items)
	defer unsubItems()
	both, unsubBoth := hub.Subscribe(All)
	defer unsubBoth()

	hub.Publish(Items)

	assert.False(t, pending(containers), "containers subscriber woken by item change")
	assert.True(t, pending(items))
	assert.True(t, pending(both))
}

func TestHubCoalesces(t *testing.T) {
	hub := NewHub()
	notify, unsubscribe := hub.Subscribe(All)
	defer unsubscribe()

	for range 10 {
		hub.Publish(Containers)
	}

	assert.True(t, pending(notify))
	assert.False(t, pending(notify), "expected bursts to coalesce into one wake-up")
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	notify, unsubscribe := hub.Subscribe(All)
	assert.Equal(t, 1, hub.Len())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, hub.Len())

	hub.Publish(All)
	assert.False(t, pending(notify))
}
