package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishRecordsInOrder(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), "blocklist-batches", map[string]any{"service": "ssh"})
	require.NoError(t, err)
	require.Equal(t, "mem-1", id1)

	id2, err := pub.Publish(context.Background(), "blocklist-batches", map[string]any{"service": "mail"})
	require.NoError(t, err)
	require.Equal(t, "mem-2", id2)

	events := pub.Events()
	require.Len(t, events, 2)
	require.Equal(t, "ssh", events[0].Payload.(map[string]any)["service"])
	require.Equal(t, "mail", events[1].Payload.(map[string]any)["service"])
}

func TestPublishRequiresTopic(t *testing.T) {
	t.Parallel()

	pub := New()
	_, err := pub.Publish(context.Background(), "", nil)
	require.Error(t, err)
	require.Empty(t, pub.Events())
}

func TestTopicEventsFilters(t *testing.T) {
	t.Parallel()

	pub := New()
	_, err := pub.Publish(context.Background(), "blocklist-batches", map[string]any{"service": "ssh"})
	require.NoError(t, err)
	_, err = pub.Publish(context.Background(), "other-topic", map[string]any{"service": "ftp"})
	require.NoError(t, err)

	events := pub.TopicEvents("blocklist-batches")
	require.Len(t, events, 1)
	require.Equal(t, "ssh", events[0].Payload.(map[string]any)["service"])
	require.Empty(t, pub.TopicEvents("missing"))
}
