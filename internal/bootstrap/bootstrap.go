package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog/log"
)

const tableWaitTimeout = 30 * time.Second

// Bootstrap creates the DynamoDB table used by the snapshot store.
// If CleanResources is true, deletes the existing table first
// If CleanResources is false, an existing table is reused
func Bootstrap(ctx context.Context, cfg Config) (*Resources, error) {
	if cfg.DynamoClient == nil {
		return nil, fmt.Errorf("DynamoClient is required")
	}
	if cfg.SnapshotTable == "" {
		return nil, fmt.Errorf("SnapshotTable is required")
	}

	res := &Resources{SnapshotTable: cfg.SnapshotTable}
	if cfg.CleanResources {
		if err := Cleanup(ctx, cfg, res); err != nil {
			return nil, err
		}
	}

	if err := createSnapshotTable(ctx, cfg.DynamoClient, cfg.SnapshotTable, cfg.CleanResources); err != nil {
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}

	return res, nil
}

// Cleanup deletes the resources created by Bootstrap
func Cleanup(ctx context.Context, cfg Config, res *Resources) error {
	if err := deleteTableIfExists(ctx, cfg.DynamoClient, res.SnapshotTable); err != nil {
		return fmt.Errorf("failed to delete snapshot table: %w", err)
	}
	return nil
}

// createSnapshotTable creates a table keyed on snapshot_id. Snapshots are
// written once and read by id, so on demand billing and no indexes.
// An existing table is an error when cleanResources is set.
func createSnapshotTable(ctx context.Context, client TableAPI, tableName string, cleanResources bool) error {
	_, err := client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(tableName),
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String("snapshot_id"),
				KeyType:       types.KeyTypeHash,
			},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String("snapshot_id"),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var resourceInUse *types.ResourceInUseException
		if !cleanResources && errors.As(err, &resourceInUse) {
			log.Debug().Str("table", tableName).Msg("snapshot table already exists")
			return nil
		}
		return err
	}

	waiter := dynamodb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(tableName)}, tableWaitTimeout); err != nil {
		return err
	}

	log.Debug().Str("table", tableName).Msg("snapshot table created")
	return nil
}

// deleteTableIfExists attempts to delete a table if it exists
func deleteTableIfExists(ctx context.Context, client TableAPI, tableName string) error {
	_, err := client.DeleteTable(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(tableName),
	})
	if err != nil {
		var resourceNotFound *types.ResourceNotFoundException
		if errors.As(err, &resourceNotFound) {
			return nil
		}
		return err
	}

	waiter := dynamodb.NewTableNotExistsWaiter(client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(tableName),
	}, tableWaitTimeout)
}
