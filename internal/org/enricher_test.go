package org

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func discoverScenario(t *testing.T, dir *fakeDirectory) []Skeleton {
	t.Helper()

	skeletons, err := NewTreeBuilder(dir).Discover(context.Background(), "r-root")
	require.NoError(t, err)
	return skeletons
}

func TestEnricher_Enrich(t *testing.T) {
	dir := newScenarioDirectory()
	skeletons := discoverScenario(t, dir)

	nodes, err := NewEnricher(dir, EnricherOptions{}).Enrich(context.Background(), skeletons)
	require.NoError(t, err)
	require.Len(t, nodes, len(skeletons))

	byID := make(map[string]Node, len(nodes))
	for i, n := range nodes {
		require.Equal(t, skeletons[i], n.Skeleton)
		byID[n.ID] = n
	}

	root := byID["r-root"]
	require.Equal(t, "Root-Management", root.Name)
	require.Equal(t, "999999999999", root.ManagementAccountID)
	require.Equal(t, "Management", root.ManagementAccountName)
	require.Equal(t, "999999999999@example.com", root.Details["Email"])

	require.Equal(t, "A", byID["ou-a"].Name)
	require.Equal(t, "B", byID["ou-b"].Name)
	require.Empty(t, byID["ou-a"].Status)

	prod := byID["222222222222"]
	require.Equal(t, "prod", prod.Name)
	require.Equal(t, "SUSPENDED", prod.Status)
	require.Equal(t, "2024-01-02, 03:04:05 UTC", prod.Details["JoinedTimestamp"])
	require.Equal(t, "CREATED", prod.Details["JoinedMethod"])

	require.Equal(t, "ACTIVE", byID["111111111111"].Status)
}

func TestEnricher_Enrich_ConcurrentKeepsOrder(t *testing.T) {
	dir := newFakeDirectory()
	dir.mgmtID = "999999999999"
	dir.names["999999999999"] = "Management"
	for i := range 40 {
		id := fmt.Sprintf("%012d", i)
		dir.accounts["r-root"] = append(dir.accounts["r-root"], id)
		dir.names[id] = "account-" + id
	}
	skeletons := discoverScenario(t, dir)

	nodes, err := NewEnricher(dir, EnricherOptions{Concurrency: 4}).Enrich(context.Background(), skeletons)
	require.NoError(t, err)

	require.Len(t, nodes, 41)
	for i, n := range nodes {
		require.Equal(t, skeletons[i].ID, n.ID)
		if n.Kind == KindAccount {
			require.Equal(t, "account-"+n.ID, n.Name)
		}
	}
	require.Equal(t, 41, dir.describeCalls)
}

func TestEnricher_Enrich_Errors(t *testing.T) {
	apiErr := errors.New("AccessDeniedException")

	tests := []struct {
		name   string
		setup  func(*fakeDirectory)
		nodeID string
		kind   Kind
	}{
		{
			name:   "account lookup fails",
			setup:  func(f *fakeDirectory) { f.describeErrs["222222222222"] = apiErr },
			nodeID: "222222222222",
			kind:   KindAccount,
		},
		{
			name:   "unit lookup fails",
			setup:  func(f *fakeDirectory) { f.describeErrs["ou-b"] = apiErr },
			nodeID: "ou-b",
			kind:   KindOrganizationalUnit,
		},
		{
			name:   "organization lookup fails",
			setup:  func(f *fakeDirectory) { f.orgErr = apiErr },
			nodeID: "r-root",
			kind:   KindRoot,
		},
		{
			name:   "management account lookup fails",
			setup:  func(f *fakeDirectory) { f.describeErrs["999999999999"] = apiErr },
			nodeID: "r-root",
			kind:   KindRoot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := newScenarioDirectory()
			skeletons := discoverScenario(t, dir)
			tt.setup(dir)

			nodes, err := NewEnricher(dir, EnricherOptions{Concurrency: 1}).Enrich(context.Background(), skeletons)
			require.Nil(t, nodes)

			var enrichErr *EnrichmentError
			require.ErrorAs(t, err, &enrichErr)
			require.Equal(t, tt.nodeID, enrichErr.NodeID)
			require.Equal(t, tt.kind, enrichErr.Kind)
			require.ErrorIs(t, err, apiErr)
		})
	}
}

func TestEnricher_Enrich_UnknownKind(t *testing.T) {
	dir := newScenarioDirectory()

	_, err := NewEnricher(dir, EnricherOptions{}).Enrich(context.Background(), []Skeleton{
		{ID: "x-1", Kind: Kind("POLICY"), ParentID: "r-root", Depth: 1},
	})

	var enrichErr *EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	require.Equal(t, "x-1", enrichErr.NodeID)
	require.Contains(t, err.Error(), "unknown node kind")
}
