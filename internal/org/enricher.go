package org

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// joinedTimestampLayout matches how the describe output has always been
// shown in node titles.
const joinedTimestampLayout = "2006-01-02, 15:04:05 MST"

// EnricherOptions configures an Enricher.
type EnricherOptions struct {
	// Concurrency is the maximum number of describe calls in flight.
	// Values below 1 mean sequential lookups.
	Concurrency int
}

// Enricher turns discovered skeletons into fully described nodes.
type Enricher struct {
	dir  Directory
	opts EnricherOptions
}

// NewEnricher creates an Enricher reading from dir.
func NewEnricher(dir Directory, opts EnricherOptions) *Enricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Enricher{dir: dir, opts: opts}
}

// Enrich describes every skeleton and returns the nodes in the same order.
// A failed lookup for any node fails the whole call with an EnrichmentError.
func (e *Enricher) Enrich(ctx context.Context, skeletons []Skeleton) ([]Node, error) {
	nodes := make([]Node, len(skeletons))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i, s := range skeletons {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return &EnrichmentError{NodeID: s.ID, Kind: s.Kind, Err: err}
			}
			n, err := e.describe(gctx, s)
			if err != nil {
				return err
			}
			nodes[i] = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().Int("nodes", len(nodes)).Int("concurrency", e.opts.Concurrency).Msg("enriched nodes")

	return nodes, nil
}

func (e *Enricher) describe(ctx context.Context, s Skeleton) (Node, error) {
	n := Node{Skeleton: s}

	switch s.Kind {
	case KindOrganizationalUnit:
		unit, err := e.dir.DescribeUnit(ctx, s.ID)
		if err != nil {
			return Node{}, &EnrichmentError{NodeID: s.ID, Kind: s.Kind, Err: err}
		}
		n.Name = unit.Name
		n.Details = compact(map[string]string{
			"Id":   unit.ID,
			"Name": unit.Name,
			"Arn":  unit.Arn,
		})

	case KindAccount:
		acct, err := e.dir.DescribeAccount(ctx, s.ID)
		if err != nil {
			return Node{}, &EnrichmentError{NodeID: s.ID, Kind: s.Kind, Err: err}
		}
		n.Name = acct.Name
		n.Status = acct.Status
		n.Details = accountDetails(acct)

	case KindRoot:
		orgRecord, err := e.dir.DescribeOrganization(ctx)
		if err != nil {
			return Node{}, &EnrichmentError{NodeID: s.ID, Kind: s.Kind, Err: fmt.Errorf("describe organization: %w", err)}
		}
		mgmt, err := e.dir.DescribeAccount(ctx, orgRecord.ManagementAccountID)
		if err != nil {
			return Node{}, &EnrichmentError{NodeID: s.ID, Kind: s.Kind, Err: fmt.Errorf("describe management account %s: %w", orgRecord.ManagementAccountID, err)}
		}
		n.ManagementAccountID = orgRecord.ManagementAccountID
		n.ManagementAccountName = mgmt.Name
		n.Name = RootName(mgmt.Name)
		n.Details = accountDetails(mgmt)

	default:
		return Node{}, &EnrichmentError{NodeID: s.ID, Kind: s.Kind, Err: fmt.Errorf("unknown node kind %q", s.Kind)}
	}

	return n, nil
}

func accountDetails(acct AccountRecord) map[string]string {
	details := map[string]string{
		"Id":           acct.ID,
		"Name":         acct.Name,
		"Email":        acct.Email,
		"Arn":          acct.Arn,
		"Status":       acct.Status,
		"JoinedMethod": acct.JoinedMethod,
	}
	if !acct.JoinedTimestamp.IsZero() {
		details["JoinedTimestamp"] = acct.JoinedTimestamp.Format(joinedTimestampLayout)
	}
	return compact(details)
}

// compact drops empty values.
func compact(m map[string]string) map[string]string {
	for k, v := range m {
		if v == "" {
			delete(m, k)
		}
	}
	return m
}
