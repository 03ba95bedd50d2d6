//go:build integration

package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startNATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nats:2-alpine",
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "4222/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("nats://%s:%s", host, port.Port())
}

func TestSubscriberSkipsOwnEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := startNATS(t)

	nc, err := Connect(DefaultConnectConfig(url))
	require.NoError(t, err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Event, 4)
	sub := NewSubscriber(nc, "", "instance-b")
	go func() {
		_ = sub.Run(ctx, func(_ context.Context, e Event) { received <- e })
	}()

	// wait for the subscription to reach the server
	require.Eventually(t, func() bool {
		return nc.NumSubscriptions() == 1
	}, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, nc.Flush())

	own := NewNATSPublisher(nc, "")
	fromB, err := New(EventTypeRecordAppended, "instance-b", time.Now(), RecordAppendedPayload{Name: "self"})
	require.NoError(t, err)
	fromA, err := New(EventTypeRecordAppended, "instance-a", time.Now(), RecordAppendedPayload{Name: "other"})
	require.NoError(t, err)

	require.NoError(t, own.Publish(ctx, fromB))
	require.NoError(t, own.Publish(ctx, fromA))

	select {
	case got := <-received:
		assert.Equal(t, fromA.ID, got.ID)
		payload, err := ParsePayload(got)
		require.NoError(t, err)
		assert.Equal(t, "other", payload.(RecordAppendedPayload).Name)
	case <-time.After(5 * time.Second):
		t.Fatal("event from other instance not received")
	}

	select {
	case got := <-received:
		t.Fatalf("unexpected event %s from %s", got.Type, got.Source)
	case <-time.After(200 * time.Millisecond):
	}
}
