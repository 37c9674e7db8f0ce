package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/orgviz/internal/config"
	"github.com/wolfeidau/orgviz/internal/directory"
	"github.com/wolfeidau/orgviz/internal/org"
	"github.com/wolfeidau/orgviz/internal/store"
	awsstore "github.com/wolfeidau/orgviz/internal/store/aws"
)

// VisualiseCmd discovers the organization and renders it.
type VisualiseCmd struct {
	AWS AWSFlags    `embed:""`
	Out OutputFlags `embed:""`

	Concurrency   int           `help:"Maximum number of describe calls in flight while enriching nodes." default:"1"`
	SnapshotTable string        `help:"DynamoDB table to save a snapshot of the discovered organization to." default:""`
	Timeout       time.Duration `help:"Overall time limit for discovery." default:"15m"`
}

// Validate is called by kong before Run, so malformed options are reported
// before any AWS call.
func (cmd *VisualiseCmd) Validate() error {
	if err := cmd.AWS.validate(); err != nil {
		return err
	}
	if err := cmd.Out.validate(); err != nil {
		return err
	}
	if cmd.Concurrency < 1 {
		return &config.ConfigurationError{Option: "concurrency", Reason: "must be at least 1"}
	}
	if cmd.Timeout <= 0 {
		return &config.ConfigurationError{Option: "timeout", Reason: "must be positive"}
	}
	return nil
}

// Run executes the visualise command
func (cmd *VisualiseCmd) Run(ctx context.Context, globals *Globals) error {
	ctx, cancel := context.WithTimeout(ctx, cmd.Timeout)
	defer cancel()

	flush := startTelemetry(ctx, globals)
	defer flush()

	log.Info().
		Str("depth", cmd.Out.Depth).
		Str("output", cmd.Out.Output).
		Int("concurrency", cmd.Concurrency).
		Msg("Starting organization discovery")

	awsConfig, err := directory.LoadAWSConfig(ctx, cmd.AWS.sessionOptions())
	if err != nil {
		return err
	}

	var snapshots store.SnapshotStore
	if cmd.SnapshotTable != "" {
		snapshots = awsstore.NewSnapshotStore(dynamodb.NewFromConfig(awsConfig), cmd.SnapshotTable)
	}

	return cmd.visualise(ctx, directory.NewFromConfig(awsConfig, directory.DefaultRetryOptions()), snapshots)
}

// visualise runs the pipeline against dir, saves a snapshot when snapshots
// is set and writes the outputs.
func (cmd *VisualiseCmd) visualise(ctx context.Context, dir org.Directory, snapshots store.SnapshotStore) error {
	pipeline := org.NewPipeline(dir, org.PipelineOptions{
		Enricher: org.EnricherOptions{Concurrency: cmd.Concurrency},
	})

	graph, err := pipeline.Run(ctx)
	if err != nil {
		return describeFailure(err)
	}

	if snapshots != nil {
		if err := saveSnapshot(ctx, snapshots, graph); err != nil {
			return err
		}
	}

	return cmd.Out.write(ctx, graph)
}

func saveSnapshot(ctx context.Context, snapshots store.SnapshotStore, graph *org.AggregatedGraph) error {
	snapshot, err := store.NewSnapshot(graph, time.Now())
	if err != nil {
		return err
	}

	if err := snapshots.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	log.Info().Str("snapshot_id", snapshot.ID.String()).Int("nodes", len(snapshot.Nodes)).Msg("Saved organization snapshot")
	fmt.Printf("Snapshot saved with ID %s\n", snapshot.ID)

	return nil
}

// describeFailure adds the failing stage to pipeline errors. No partial
// visualisation is written in any of these cases.
func describeFailure(err error) error {
	var (
		discoveryErr  *org.DiscoveryError
		enrichmentErr *org.EnrichmentError
		structuralErr *org.StructuralError
	)

	switch {
	case errors.As(err, &discoveryErr):
		return fmt.Errorf("organization discovery aborted: %w", err)
	case errors.As(err, &enrichmentErr):
		return fmt.Errorf("organization enrichment aborted: %w", err)
	case errors.As(err, &structuralErr):
		return fmt.Errorf("organization structure is invalid: %w", err)
	default:
		return err
	}
}
