package model

import (
	"time"
)

// ChangeType describes the kind of operation recorded for a path.
type ChangeType int

const (
	// ChangeAdd introduces a path that did not exist at the base revision
	ChangeAdd ChangeType = iota

	// ChangeEdit replaces the content of an existing path
	ChangeEdit

	// ChangeDelete removes a path
	ChangeDelete
)

func (c ChangeType) String() string {
	switch c {
	case ChangeAdd:
		return "add"
	case ChangeEdit:
		return "edit"
	case ChangeDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Branch points at the head commit of a line of history and carries the
// lock domain the branch currently belongs to.
//
// Branches are never deleted, only retired.
type Branch struct {
	Name         string `json:"name" yaml:"name"`
	Parent       string `json:"parent,omitempty" yaml:"parent,omitempty"`
	Head         string `json:"head" yaml:"head"`
	LockDomainID string `json:"lock_domain_id" yaml:"lock_domain_id"`
	Retired      bool   `json:"retired,omitempty" yaml:"retired,omitempty"`
}

// Change records one operation on one repository-relative path.
// Hash is empty for deletes.
type Change struct {
	Path string     `json:"path" yaml:"path"`
	Type ChangeType `json:"type" yaml:"type"`
	Hash string     `json:"hash,omitempty" yaml:"hash,omitempty"`
}

// Commit is an immutable record of a change set applied on a branch.
//
// The first parent is always the previous branch head. A second parent is
// present only on merge commits.
type Commit struct {
	ID        string    `json:"id" yaml:"id"`
	Parents   []string  `json:"parents" yaml:"parents"`
	Branch    string    `json:"branch" yaml:"branch"`
	Author    string    `json:"author" yaml:"author"`
	Message   string    `json:"message" yaml:"message"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Changes   ChangeSet `json:"changes" yaml:"changes"`
}

// Lock grants a workspace exclusive write access to a path within a lock
// domain. Metadata is an opaque payload interpreted by a merge policy: it
// may prove that several holders can share the same path.
type Lock struct {
	DomainID    string `json:"lock_domain_id" yaml:"lock_domain_id"`
	Path        string `json:"path" yaml:"path"`
	WorkspaceID string `json:"workspace_id" yaml:"workspace_id"`
	BranchName  string `json:"branch_name" yaml:"branch_name"`
	Metadata    []byte `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// LockDomain is the derived set of branches sharing mutual-exclusion locks.
type LockDomain struct {
	ID       string   `json:"id" yaml:"id"`
	Branches []string `json:"branches" yaml:"branches"`
}

// PendingMerge is the persisted record of a cross-domain merge that needs
// operator resolution. It is a terminal state, not an error.
type PendingMerge struct {
	Source     string    `json:"source" yaml:"source"`
	Target     string    `json:"target" yaml:"target"`
	SourceHead string    `json:"source_head" yaml:"source_head"`
	TargetHead string    `json:"target_head" yaml:"target_head"`
	Paths      []string  `json:"paths" yaml:"paths"`
	Recorded   time.Time `json:"recorded" yaml:"recorded"`
}

// WorkspaceMode selects eager or lazy materialization for a workspace.
type WorkspaceMode string

const (
	// WorkspaceLocal materializes the whole tree at init
	WorkspaceLocal WorkspaceMode = "local"

	// WorkspaceVirtual materializes nothing and fetches on first read
	WorkspaceVirtual WorkspaceMode = "virtual"
)

// WorkspaceSpec is the persisted identity of a workspace, stored at its root.
type WorkspaceSpec struct {
	ID       string        `json:"id" yaml:"id"`
	Branch   string        `json:"branch" yaml:"branch"`
	Revision string        `json:"revision" yaml:"revision"`
	Mode     WorkspaceMode `json:"mode" yaml:"mode"`
}
