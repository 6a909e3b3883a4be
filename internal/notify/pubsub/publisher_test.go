package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(context.Background(), "elections", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPublishRunSummary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	client, srv := newClient(t)
	_, err := client.CreateTopic(ctx, "runs")
	require.NoError(t, err)

	pub, err := Open(ctx, client, "runs")
	require.NoError(t, err)
	defer pub.Stop()

	payload := map[string]any{"run_id": "r-1", "rows": 42}
	id, err := pub.Publish(ctx, payload, map[string]string{"hierarchy": "municipales"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "municipales", msgs[0].Attributes["hierarchy"])
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "r-1", got["run_id"])
	assert.InDelta(t, 42, got["rows"], 0)
}

func TestOpenMissingTopic(t *testing.T) {
	t.Parallel()
	client, _ := newClient(t)

	_, err := Open(context.Background(), client, "absent")
	require.Error(t, err)
	_, err = Open(context.Background(), client, "")
	require.Error(t, err)
	_, err = Open(context.Background(), nil, "runs")
	require.Error(t, err)
}

func TestPublishUnconfigured(t *testing.T) {
	t.Parallel()
	_, err := (&Publisher{}).Publish(context.Background(), "x", nil)
	require.Error(t, err)
}
