package bootstrap

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// TableAPI is the subset of the DynamoDB client needed to manage tables,
// including the DescribeTable call used by the waiters.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Config holds configuration for creating the snapshot infrastructure
type Config struct {
	DynamoClient TableAPI

	// SnapshotTable is the name of the table snapshots are saved to
	SnapshotTable string

	// CleanResources controls whether to delete an existing table before creating
	// Leave false to keep previously saved snapshots
	CleanResources bool
}

// Resources holds identifiers for created infrastructure resources
type Resources struct {
	SnapshotTable string
}
