package org

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type listCall struct {
	ParentID  string
	ChildType ChildType
	Token     string
}

// fakeDirectory serves a fixed organization, splitting children into pages
// of pageSize when set.
type fakeDirectory struct {
	mu sync.Mutex

	roots    []string
	units    map[string][]string
	accounts map[string][]string
	names    map[string]string
	status   map[string]string
	mgmtID   string
	pageSize int

	listErrs     map[string]error
	describeErrs map[string]error
	orgErr       error

	listCalls     []listCall
	describeCalls int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		roots:        []string{"r-root"},
		units:        map[string][]string{},
		accounts:     map[string][]string{},
		names:        map[string]string{},
		status:       map[string]string{},
		listErrs:     map[string]error{},
		describeErrs: map[string]error{},
	}
}

// newScenarioDirectory returns the organization
//
//	r-root
//	└── ou-a (A)
//	    ├── ou-b (B)
//	    │   └── 333333333333
//	    ├── 111111111111
//	    └── 222222222222
//
// with 999999999999 as the management account.
func newScenarioDirectory() *fakeDirectory {
	f := newFakeDirectory()
	f.units["r-root"] = []string{"ou-a"}
	f.units["ou-a"] = []string{"ou-b"}
	f.accounts["ou-a"] = []string{"111111111111", "222222222222"}
	f.accounts["ou-b"] = []string{"333333333333"}
	f.names = map[string]string{
		"ou-a":         "A",
		"ou-b":         "B",
		"111111111111": "dev",
		"222222222222": "prod",
		"333333333333": "sandbox",
		"999999999999": "Management",
	}
	f.status["222222222222"] = "SUSPENDED"
	f.mgmtID = "999999999999"
	return f
}

func (f *fakeDirectory) ListRoots(ctx context.Context) ([]string, error) {
	return f.roots, nil
}

func (f *fakeDirectory) ListChildren(ctx context.Context, parentID string, childType ChildType, nextToken string) (ChildrenPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls = append(f.listCalls, listCall{ParentID: parentID, ChildType: childType, Token: nextToken})

	if err := f.listErrs[parentID]; err != nil {
		return ChildrenPage{}, err
	}

	children := f.units[parentID]
	if childType == ChildTypeAccount {
		children = f.accounts[parentID]
	}

	if f.pageSize == 0 {
		return ChildrenPage{IDs: children}, nil
	}

	start := 0
	if nextToken != "" {
		var err error
		start, err = strconv.Atoi(nextToken)
		if err != nil {
			return ChildrenPage{}, fmt.Errorf("bad token %q", nextToken)
		}
	}
	end := min(start+f.pageSize, len(children))

	page := ChildrenPage{IDs: children[start:end]}
	if end < len(children) {
		page.NextToken = strconv.Itoa(end)
	}
	return page, nil
}

func (f *fakeDirectory) DescribeUnit(ctx context.Context, id string) (UnitRecord, error) {
	if err := f.describe(id); err != nil {
		return UnitRecord{}, err
	}
	return UnitRecord{ID: id, Name: f.names[id], Arn: "arn:aws:organizations::999999999999:ou/o-test/" + id}, nil
}

func (f *fakeDirectory) DescribeAccount(ctx context.Context, id string) (AccountRecord, error) {
	if err := f.describe(id); err != nil {
		return AccountRecord{}, err
	}
	status := f.status[id]
	if status == "" {
		status = "ACTIVE"
	}
	return AccountRecord{
		ID:              id,
		Name:            f.names[id],
		Email:           id + "@example.com",
		Arn:             "arn:aws:organizations::999999999999:account/o-test/" + id,
		Status:          status,
		JoinedMethod:    "CREATED",
		JoinedTimestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeDirectory) DescribeOrganization(ctx context.Context) (OrganizationRecord, error) {
	if f.orgErr != nil {
		return OrganizationRecord{}, f.orgErr
	}
	return OrganizationRecord{ID: "o-test", ManagementAccountID: f.mgmtID, FeatureSet: "ALL"}, nil
}

func (f *fakeDirectory) describe(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.describeCalls++
	if err := f.describeErrs[id]; err != nil {
		return err
	}
	if _, ok := f.names[id]; !ok {
		return errors.New("not found: " + id)
	}
	return nil
}

func (f *fakeDirectory) callsFor(parentID string, childType ChildType) []listCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var calls []listCall
	for _, c := range f.listCalls {
		if c.ParentID == parentID && c.ChildType == childType {
			calls = append(calls, c)
		}
	}
	return calls
}

func ids(skeletons []Skeleton) []string {
	out := make([]string, len(skeletons))
	for i, s := range skeletons {
		out[i] = s.ID
	}
	return out
}
