package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/orgviz/internal/bootstrap"
	"github.com/wolfeidau/orgviz/internal/config"
	"github.com/wolfeidau/orgviz/internal/directory"
	"github.com/wolfeidau/orgviz/internal/store"
	awsstore "github.com/wolfeidau/orgviz/internal/store/aws"
)

type SnapshotCmd struct {
	Init SnapshotInitCmd `cmd:"" help:"Create the DynamoDB table snapshots are saved to"`
	Show SnapshotShowCmd `cmd:"" help:"Render a stored snapshot without querying the organization"`
}

// SnapshotInitCmd creates the snapshot table.
type SnapshotInitCmd struct {
	AWS AWSFlags `embed:""`

	SnapshotTable string `help:"DynamoDB table to create" required:""`
	Clean         bool   `help:"Delete the table first, discarding stored snapshots" default:"false"`
}

func (cmd *SnapshotInitCmd) Validate() error {
	return cmd.AWS.validate()
}

func (cmd *SnapshotInitCmd) Run(ctx context.Context, globals *Globals) error {
	awsConfig, err := directory.LoadAWSConfig(ctx, cmd.AWS.sessionOptions())
	if err != nil {
		return err
	}

	res, err := bootstrap.Bootstrap(ctx, bootstrap.Config{
		DynamoClient:   dynamodb.NewFromConfig(awsConfig),
		SnapshotTable:  cmd.SnapshotTable,
		CleanResources: cmd.Clean,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Snapshot table %s is ready\n", res.SnapshotTable)
	return nil
}

// SnapshotShowCmd renders a snapshot saved by a previous visualise run.
type SnapshotShowCmd struct {
	AWS AWSFlags    `embed:""`
	Out OutputFlags `embed:""`

	ID            string `help:"Snapshot ID" required:""`
	SnapshotTable string `help:"DynamoDB table holding snapshots" required:""`
}

func (cmd *SnapshotShowCmd) Validate() error {
	if err := cmd.AWS.validate(); err != nil {
		return err
	}
	if err := cmd.Out.validate(); err != nil {
		return err
	}
	if _, err := uuid.Parse(cmd.ID); err != nil {
		return &config.ConfigurationError{Option: "snapshot id", Reason: err.Error()}
	}
	return nil
}

func (cmd *SnapshotShowCmd) Run(ctx context.Context, globals *Globals) error {
	flush := startTelemetry(ctx, globals)
	defer flush()

	awsConfig, err := directory.LoadAWSConfig(ctx, cmd.AWS.sessionOptions())
	if err != nil {
		return err
	}

	snapshots := awsstore.NewSnapshotStore(dynamodb.NewFromConfig(awsConfig), cmd.SnapshotTable)

	return cmd.show(ctx, snapshots)
}

func (cmd *SnapshotShowCmd) show(ctx context.Context, snapshots store.SnapshotStore) error {
	snapshot, err := snapshots.Get(ctx, uuid.MustParse(cmd.ID))
	if err != nil {
		return fmt.Errorf("failed to load snapshot %s: %w", cmd.ID, err)
	}

	graph, err := snapshot.Graph()
	if err != nil {
		return err
	}

	log.Info().
		Str("snapshot_id", cmd.ID).
		Time("captured_at", snapshot.CapturedAt).
		Int("nodes", graph.Len()).
		Msg("Loaded organization snapshot")

	return cmd.Out.write(ctx, graph)
}
