//go:build integration

package aws

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wolfeidau/orgviz/internal/bootstrap"
	"github.com/wolfeidau/orgviz/internal/store"
)

const testSnapshotTable = "orgviz-snapshots-test"

func setupDynamoDBContainer(t *testing.T, ctx context.Context) (*dynamodb.Client, func()) {
	req := testcontainers.ContainerRequest{
		Image:        "amazon/dynamodb-local:latest",
		ExposedPorts: []string{"8000/tcp"},
		Cmd:          []string{"-jar", "DynamoDBLocal.jar", "-inMemory"},
		WaitingFor:   wait.ForListeningPort("8000/tcp"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "8000")
	require.NoError(t, err)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
	)
	require.NoError(t, err)

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("http://%s:%s", host, port.Port()))
	})

	cleanup := func() {
		_ = container.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_SnapshotStore(t *testing.T) {
	ctx := context.Background()
	client, cleanup := setupDynamoDBContainer(t, ctx)
	defer cleanup()

	_, err := bootstrap.Bootstrap(ctx, bootstrap.Config{DynamoClient: client, SnapshotTable: testSnapshotTable})
	require.NoError(t, err)

	s := NewSnapshotStore(client, testSnapshotTable)
	snapshot := newTestSnapshot(t)

	t.Run("save", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, snapshot))
	})

	t.Run("save duplicate", func(t *testing.T) {
		require.ErrorIs(t, s.Save(ctx, snapshot), store.ErrSnapshotAlreadyExists)
	})

	t.Run("get", func(t *testing.T) {
		got, err := s.Get(ctx, snapshot.ID)
		require.NoError(t, err)
		require.Equal(t, snapshot, got)
	})
}
