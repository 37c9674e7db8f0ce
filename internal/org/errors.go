package org

import "fmt"

// DiscoveryError is returned when a directory query fails while walking the
// organization. The whole discovery is aborted, no partial tree is returned.
type DiscoveryError struct {
	ParentID  string
	ChildType ChildType
	Err       error
}

func (e *DiscoveryError) Error() string {
	if e.ChildType == "" {
		return fmt.Sprintf("discovery failed at %s: %v", e.ParentID, e.Err)
	}
	return fmt.Sprintf("discovery failed listing %s children of %s: %v", e.ChildType, e.ParentID, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// EnrichmentError is returned when the descriptive lookup for a discovered
// node fails.
type EnrichmentError struct {
	NodeID string
	Kind   Kind
	Err    error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("failed to describe %s %s: %v", e.Kind, e.NodeID, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// StructuralError signals that the discovered nodes do not form a valid
// organization tree, for example an edge to a parent that was never
// discovered.
type StructuralError struct {
	NodeID string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("invalid organization structure at %s: %s", e.NodeID, e.Reason)
}
