package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/orgviz/internal/config"
	"github.com/wolfeidau/orgviz/internal/directory"
	"github.com/wolfeidau/orgviz/internal/org"
	"github.com/wolfeidau/orgviz/internal/render"
	"github.com/wolfeidau/orgviz/internal/telemetry"
)

const serviceName = "orgviz"

type Globals struct {
	Debug   bool
	Version string
}

// AWSFlags selects the credentials used for AWS calls.
type AWSFlags struct {
	AWSProfile    string `name:"aws-profile" help:"AWS profile already configured for the CLI." default:""`
	AWSAssumeRole string `name:"aws-assume-role" help:"IAM role in the profile's account to assume before querying the organization." default:""`
	AWSRegion     string `name:"aws-region" help:"AWS region" env:"AWS_REGION" default:""`
	AWSEndpoint   string `name:"aws-endpoint" help:"AWS endpoint (for LocalStack)" env:"AWS_ENDPOINT" default:""`
}

func (f *AWSFlags) validate() error {
	if err := config.ValidateProfile(f.AWSProfile); err != nil {
		return err
	}
	return config.ValidateRoleName(f.AWSAssumeRole)
}

func (f *AWSFlags) sessionOptions() directory.SessionOptions {
	return directory.SessionOptions{
		Profile:    f.AWSProfile,
		Region:     f.AWSRegion,
		Endpoint:   f.AWSEndpoint,
		AssumeRole: f.AWSAssumeRole,
	}
}

// OutputFlags controls what is rendered and where.
type OutputFlags struct {
	Depth       string `short:"d" help:"Show the tree down to the \"ou\" or the \"account\" level." enum:"ou,account" default:"account"`
	Output      string `short:"o" help:"HTML file the visualisation is written to, relative or absolute, ending in .html." default:"output/output.html"`
	DarkMode    bool   `name:"dark-mode" help:"Use a black background." default:"false"`
	ShowOptions bool   `name:"show-options" help:"Add the graph option controls to the page." default:"false"`
	Export      string `help:"Also write the graph as JSON or YAML to this path (.json, .yaml, .yml)." default:""`
}

func (f *OutputFlags) validate() error {
	if err := config.ValidateDepth(f.Depth); err != nil {
		return err
	}
	if err := config.ValidateOutputPath(f.Output); err != nil {
		return err
	}
	if f.Export != "" {
		if _, err := render.FormatFromPath(f.Export); err != nil {
			return &config.ConfigurationError{Option: "export", Reason: err.Error()}
		}
	}
	return nil
}

// write prunes the graph when only units were requested and writes the
// requested outputs. Callers must save snapshots before calling write.
func (f *OutputFlags) write(ctx context.Context, graph *org.AggregatedGraph) error {
	if config.Depth(f.Depth) == config.DepthOU {
		removed := graph.PruneAccounts()
		telemetry.GetMetrics().AccountsPrunedTotal.Add(ctx, int64(removed))
		log.Debug().Int("removed", removed).Msg("pruned account vertices")
	}

	// Render everything before any file is created.
	var exported bytes.Buffer
	if f.Export != "" {
		format, err := render.FormatFromPath(f.Export)
		if err != nil {
			return err
		}
		if err := render.Export(&exported, graph, format); err != nil {
			return fmt.Errorf("failed to export graph: %w", err)
		}
	}

	var page bytes.Buffer
	opts := render.Options{
		DarkMode:    f.DarkMode,
		ShowOptions: f.ShowOptions,
	}
	if err := render.HTML(&page, graph, opts); err != nil {
		return fmt.Errorf("failed to write visualisation: %w", err)
	}

	if f.Export != "" {
		if err := render.WriteFile(f.Export, copyFrom(&exported)); err != nil {
			return fmt.Errorf("failed to export graph: %w", err)
		}
	}

	if err := render.WriteFile(f.Output, copyFrom(&page)); err != nil {
		if f.Export != "" {
			if rmErr := os.Remove(f.Export); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", f.Export).Msg("failed to remove export")
			}
		}
		return fmt.Errorf("failed to write visualisation: %w", err)
	}

	if f.Export != "" {
		fmt.Printf("Graph exported to %s\n", f.Export)
	}
	fmt.Printf("Visualisation written to %s\n", f.Output)
	return nil
}

func copyFrom(buf *bytes.Buffer) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := buf.WriteTo(w)
		return err
	}
}

// startTelemetry installs OTLP exporters when an endpoint is configured and
// returns a function flushing them.
func startTelemetry(ctx context.Context, globals *Globals) func() {
	if !telemetry.Enabled() {
		return func() {}
	}

	shutdown, err := telemetry.Start(ctx, telemetry.Config{ServiceName: serviceName, Version: globals.Version})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize telemetry")
		return func() {}
	}

	return func() {
		// The command context may already be cancelled, flush with a fresh one.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}
}
