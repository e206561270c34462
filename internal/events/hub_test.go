package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversToTopicAndWildcard(t *testing.T) {
	hub := NewHub()
	var topical, all []string

	unsub := hub.Subscribe(TopicPoolRefreshed, func(_ context.Context, ev Event) {
		topical = append(topical, ev.Topic)
	})
	hub.Subscribe(TopicAll, func(_ context.Context, ev Event) {
		all = append(all, ev.Topic)
	})

	hub.Publish(context.Background(), TopicPoolRefreshed, map[string]int{"size": 3}, nil)
	hub.Publish(context.Background(), TopicFetchCompleted, nil, map[string]string{"video_id": "abc"})
	unsub()
	hub.Publish(context.Background(), TopicPoolRefreshed, nil, nil)

	assert.Equal(t, []string{TopicPoolRefreshed}, topical)
	assert.Equal(t, []string{TopicPoolRefreshed, TopicFetchCompleted, TopicPoolRefreshed}, all)
}

func TestHubRecentIsBounded(t *testing.T) {
	hub := NewHub()
	for i := 0; i < defaultHistory+10; i++ {
		hub.Publish(context.Background(), TopicFetchCompleted, i, nil)
	}

	recent := hub.Recent(0)
	require.Len(t, recent, defaultHistory)
	assert.Equal(t, 10, recent[0].Payload)
	assert.Equal(t, defaultHistory+9, recent[len(recent)-1].Payload)

	last := hub.Recent(2)
	require.Len(t, last, 2)
	assert.Equal(t, fmt.Sprint(defaultHistory+9), fmt.Sprint(last[1].Payload))
}

func TestNilHubPublishIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), TopicCachePurged, nil, nil)
	})
}
