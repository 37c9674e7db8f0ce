package org

import "fmt"

// Kind identifies the type of a node in the organization tree.
type Kind string

const (
	KindRoot               Kind = "ROOT"
	KindOrganizationalUnit Kind = "ORGANIZATIONAL_UNIT"
	KindAccount            Kind = "ACCOUNT"
)

// IsContainer reports whether nodes of this kind can have children and carry
// a descendant account count.
func (k Kind) IsContainer() bool {
	return k == KindRoot || k == KindOrganizationalUnit
}

// RootNamePrefix is prepended to the management account name to build the
// display name of the root node.
const RootNamePrefix = "Root-"

// Skeleton is the structural part of a node as found by the TreeBuilder,
// before any descriptive lookups have been made.
type Skeleton struct {
	ID       string `json:"id" yaml:"id"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	ParentID string `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Depth    int    `json:"depth" yaml:"depth"`
}

// Node is a fully described organization node. Nodes are only produced by
// the Enricher once every attribute is known.
type Node struct {
	Skeleton `yaml:",inline"`

	Name   string `json:"name" yaml:"name"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`

	// Root only
	ManagementAccountID   string `json:"management_account_id,omitempty" yaml:"management_account_id,omitempty"`
	ManagementAccountName string `json:"management_account_name,omitempty" yaml:"management_account_name,omitempty"`

	// Details holds the raw attributes returned by the describe call, used
	// as hover text by renderers.
	Details map[string]string `json:"details,omitempty" yaml:"details,omitempty"`
}

func (n Node) String() string {
	return fmt.Sprintf("%s(%s)", n.Kind, n.ID)
}

// RootName builds the display name of the root node from the management
// account name.
func RootName(managementAccountName string) string {
	return RootNamePrefix + managementAccountName
}
