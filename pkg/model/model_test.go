package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeSetOrdering(t *testing.T) {
	var cs ChangeSet
	cs = cs.Add(Change{Path: "b.bin", Type: ChangeAdd, Hash: "h1"})
	cs = cs.Add(Change{Path: "a.bin", Type: ChangeAdd, Hash: "h2"})
	cs = cs.Add(Change{Path: "c/d.bin", Type: ChangeDelete})

	assert.Equal(t, []string{"a.bin", "b.bin", "c/d.bin"}, cs.Paths())

	// replacing keeps the order and the path unique
	cs = cs.Add(Change{Path: "b.bin", Type: ChangeEdit, Hash: "h3"})
	require.Len(t, cs, 3)
	change, ok := cs.Get("b.bin")
	require.True(t, ok)
	assert.Equal(t, ChangeEdit, change.Type)
	assert.Equal(t, "h3", change.Hash)

	cs, removed := cs.Remove("a.bin")
	require.True(t, removed)
	assert.Equal(t, []string{"b.bin", "c/d.bin"}, cs.Paths())
	_, removed = cs.Remove("a.bin")
	assert.False(t, removed)

	assert.Equal(t, []string{"b.bin"}, cs.Intersect([]string{"a.bin", "b.bin", "x.bin"}))
}

func TestCommitIDDeterministic(t *testing.T) {
	ts := time.Date(2021, 3, 15, 10, 30, 0, 0, time.UTC)
	changes := ChangeSet{}.
		Add(Change{Path: "a.bin", Type: ChangeAdd, Hash: "h1"}).
		Add(Change{Path: "b.bin", Type: ChangeEdit, Hash: "h2"})

	first := CommitID([]string{"p1"}, "main", "alice", ts, changes)
	second := CommitID([]string{"p1"}, "main", "alice", ts, changes)
	assert.Equal(t, first, second)
	assert.Len(t, first, 128)

	// every field participates in the derivation
	assert.NotEqual(t, first, CommitID([]string{"p2"}, "main", "alice", ts, changes))
	assert.NotEqual(t, first, CommitID([]string{"p1"}, "feature", "alice", ts, changes))
	assert.NotEqual(t, first, CommitID([]string{"p1"}, "main", "bob", ts, changes))
	assert.NotEqual(t, first, CommitID([]string{"p1"}, "main", "alice", ts.Add(time.Second), changes))
	assert.NotEqual(t, first, CommitID([]string{"p1"}, "main", "alice", ts, changes[:1]))
}

func TestCommitIDFieldBoundaries(t *testing.T) {
	ts := time.Date(2021, 3, 15, 10, 30, 0, 0, time.UTC)

	// length prefixing keeps adjacent fields from bleeding into each other
	a := CommitID(nil, "ab", "c", ts, nil)
	b := CommitID(nil, "a", "bc", ts, nil)
	assert.NotEqual(t, a, b)
}

func TestNewCommit(t *testing.T) {
	changes := ChangeSet{}.Add(Change{Path: "a.bin", Type: ChangeAdd, Hash: "h1"})
	commit := NewCommit([]string{"p1"}, "main", "alice", "add a", changes)

	assert.Equal(t, CommitID(commit.Parents, commit.Branch, commit.Author, commit.Timestamp, commit.Changes), commit.ID)
	assert.Equal(t, "add a", commit.Message)
	assert.Equal(t, time.UTC, commit.Timestamp.Location())
}

func TestErrorTaxonomy(t *testing.T) {
	conflict := &ConflictError{DomainID: "d1", Path: "a.bin", Holder: Lock{WorkspaceID: "w1", BranchName: "main"}}
	assert.Contains(t, conflict.Error(), "Conflict:")
	assert.Contains(t, conflict.Error(), "w1")

	collision := &LockCollisionError{Path: "a.bin", SourceDomain: "d1", TargetDomain: "d2"}
	assert.Contains(t, collision.Error(), "LockCollision:")

	stale := &StaleWorkspaceError{Branch: "main", Revision: "r1", Head: "r2"}
	assert.Contains(t, stale.Error(), "StaleWorkspace:")

	sync := &SyncConflictError{Paths: []string{"a.bin", "b.bin"}}
	assert.Contains(t, sync.Error(), "SyncConflict:")
	assert.Contains(t, sync.Error(), "a.bin, b.bin")

	pending := &MergePendingError{Pending: PendingMerge{Source: "feature", Target: "main", Paths: []string{"a.bin"}}}
	assert.Contains(t, pending.Error(), "MergePending:")
}
