package org

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// TreeBuilder walks the organization directory from the root and records
// every unit and account it finds.
type TreeBuilder struct {
	dir Directory
}

// NewTreeBuilder creates a TreeBuilder reading from dir.
func NewTreeBuilder(dir Directory) *TreeBuilder {
	return &TreeBuilder{dir: dir}
}

// ResolveRoot returns the id of the organization root. Organizations have a
// single root, so the first one listed is used.
func (b *TreeBuilder) ResolveRoot(ctx context.Context) (string, error) {
	roots, err := b.dir.ListRoots(ctx)
	if err != nil {
		return "", &DiscoveryError{ParentID: "roots", Err: err}
	}
	if len(roots) == 0 {
		return "", &DiscoveryError{ParentID: "roots", Err: errors.New("no root returned")}
	}

	zerolog.Ctx(ctx).Info().Str("root_id", roots[0]).Int("roots", len(roots)).Msg("resolved organization root")

	return roots[0], nil
}

// pending is a unit of work on the discovery stack. A visit appends the node
// and expands its child units; an accounts entry lists the direct account
// children of node once all of its units have been walked.
type pending struct {
	node     Skeleton
	accounts bool
}

// Discover walks the organization depth first from rootID and returns the
// root followed by every descendant. At each parent the child units (and
// their whole subtrees) come before the parent's accounts.
//
// The walk uses an explicit stack so arbitrarily deep organizations do not
// grow the goroutine stack; the order matches a recursive walk.
func (b *TreeBuilder) Discover(ctx context.Context, rootID string) ([]Skeleton, error) {
	logger := zerolog.Ctx(ctx)

	var (
		nodes []Skeleton
		seen  = make(map[string]struct{})
	)

	add := func(s Skeleton) error {
		if _, ok := seen[s.ID]; ok {
			return &StructuralError{NodeID: s.ID, Reason: fmt.Sprintf("discovered twice (second parent %s)", s.ParentID)}
		}
		seen[s.ID] = struct{}{}
		nodes = append(nodes, s)
		return nil
	}

	stack := []pending{{node: Skeleton{ID: rootID, Kind: KindRoot}}}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := ctx.Err(); err != nil {
			return nil, &DiscoveryError{ParentID: top.node.ID, Err: err}
		}

		if top.accounts {
			ids, err := b.listAll(ctx, top.node.ID, ChildTypeAccount)
			if err != nil {
				return nil, err
			}
			for _, id := range ids {
				if err := add(Skeleton{ID: id, Kind: KindAccount, ParentID: top.node.ID, Depth: top.node.Depth + 1}); err != nil {
					return nil, err
				}
			}
			logger.Debug().Str("parent_id", top.node.ID).Int("accounts", len(ids)).Msg("listed accounts")
			continue
		}

		if err := add(top.node); err != nil {
			return nil, err
		}

		units, err := b.listAll(ctx, top.node.ID, ChildTypeUnit)
		if err != nil {
			return nil, err
		}
		logger.Debug().Str("parent_id", top.node.ID).Int("depth", top.node.Depth).Int("units", len(units)).Msg("listed units")

		stack = append(stack, pending{node: top.node, accounts: true})
		for i := len(units) - 1; i >= 0; i-- {
			stack = append(stack, pending{node: Skeleton{
				ID:       units[i],
				Kind:     KindOrganizationalUnit,
				ParentID: top.node.ID,
				Depth:    top.node.Depth + 1,
			}})
		}
	}

	return nodes, nil
}

// listAll follows continuation tokens until the directory reports no more
// pages and returns the children of every page in order.
func (b *TreeBuilder) listAll(ctx context.Context, parentID string, childType ChildType) ([]string, error) {
	var (
		ids    []string
		token  string
		tokens = make(map[string]struct{})
	)

	for {
		page, err := b.dir.ListChildren(ctx, parentID, childType, token)
		if err != nil {
			return nil, &DiscoveryError{ParentID: parentID, ChildType: childType, Err: err}
		}
		ids = append(ids, page.IDs...)

		if page.NextToken == "" {
			return ids, nil
		}
		if _, ok := tokens[page.NextToken]; ok {
			return nil, &DiscoveryError{ParentID: parentID, ChildType: childType, Err: fmt.Errorf("continuation token %q repeated", page.NextToken)}
		}
		tokens[page.NextToken] = struct{}{}
		token = page.NextToken
	}
}
