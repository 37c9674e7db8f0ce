package org

import (
	"context"
	"time"
)

// ChildType selects which children ListChildren returns.
type ChildType string

const (
	ChildTypeUnit    ChildType = "UNIT"
	ChildTypeAccount ChildType = "ACCOUNT"
)

// ChildrenPage is one page of a ListChildren response. An empty NextToken
// means there are no more pages.
type ChildrenPage struct {
	IDs       []string
	NextToken string
}

// UnitRecord describes an organizational unit.
type UnitRecord struct {
	ID   string
	Name string
	Arn  string
}

// AccountRecord describes a member account.
type AccountRecord struct {
	ID              string
	Name            string
	Email           string
	Arn             string
	Status          string
	JoinedMethod    string
	JoinedTimestamp time.Time
}

// OrganizationRecord describes the organization itself.
type OrganizationRecord struct {
	ID                  string
	Arn                 string
	ManagementAccountID string
	FeatureSet          string
}

// Directory is the paginated query interface over the organization API.
type Directory interface {
	ListRoots(ctx context.Context) ([]string, error)
	// ListChildren returns a single page of children. Callers must call it
	// again with the returned NextToken until it is empty.
	ListChildren(ctx context.Context, parentID string, childType ChildType, nextToken string) (ChildrenPage, error)
	DescribeUnit(ctx context.Context, id string) (UnitRecord, error)
	DescribeAccount(ctx context.Context, id string) (AccountRecord, error)
	DescribeOrganization(ctx context.Context) (OrganizationRecord, error)
}
