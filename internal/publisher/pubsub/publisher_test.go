package pubsub_test

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

	akapubsub "github.com/JakeFAU/aka-exporter/internal/publisher/pubsub"
)

func newFakeClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	ctx := context.Background()

	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := pubsub.NewClient(ctx, "aka-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	return client, srv
}

func TestPublisherPublishesJSON(t *testing.T) {
	client, srv := newFakeClient(t)
	ctx := context.Background()
	_, err := client.CreateTopic(ctx, "exports")
	require.NoError(t, err)

	pub := akapubsub.New(client, map[string]string{"source": "aka-exporter"})
	t.Cleanup(func() { _ = pub.Close() })

	payload := map[string]any{"run_id": "run-1", "summary": "1 Oks, 0 Errors, 0 NotFound, 0 Redirects"}
	id, err := pub.Publish(ctx, "exports", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "run-1", got["run_id"])
	assert.Equal(t, "aka-exporter", msgs[0].Attributes["source"])
}

func TestPublisherMissingTopic(t *testing.T) {
	client, _ := newFakeClient(t)
	pub := akapubsub.New(client, nil)
	t.Cleanup(func() { _ = pub.Close() })

	_, err := pub.Publish(context.Background(), "absent", map[string]string{"k": "v"})
	require.Error(t, err)
}

func TestPublisherValidates(t *testing.T) {
	_, err := akapubsub.New(nil, nil).Publish(context.Background(), "exports", "x")
	require.Error(t, err)

	client, _ := newFakeClient(t)
	pub := akapubsub.New(client, nil)
	t.Cleanup(func() { _ = pub.Close() })

	_, err = pub.Publish(context.Background(), "", "x")
	require.Error(t, err)
	_, err = pub.Publish(context.Background(), "exports", func() {})
	require.ErrorContains(t, err, "marshal payload")
}
