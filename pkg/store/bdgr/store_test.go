package bdgr

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIndex(t *testing.T) store.Index {
	t.Helper()
	td, err := ioutil.TempDir("", "keystone-bdgr-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(td) })

	idx := New(td)
	require.NoError(t, idx.Initialize())
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestBranchRoundTrip(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	err := idx.View(ctx, func(tx store.Tx) error {
		_, e := tx.GetBranch("main")
		return e
	})
	require.ErrorIs(t, err, model.ErrUnknownBranch)

	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		return tx.PutBranch(&model.Branch{Name: "main", Head: "c1", LockDomainID: "d1"})
	}))

	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		branch, e := tx.GetBranch("main")
		if e != nil {
			return e
		}
		assert.Equal(t, "c1", branch.Head)
		assert.Equal(t, "d1", branch.LockDomainID)
		return nil
	}))
}

func TestBranchesInDomain(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		for _, b := range []model.Branch{
			{Name: "main", LockDomainID: "d1"},
			{Name: "feature", LockDomainID: "d1"},
			{Name: "island", LockDomainID: "d2"},
		} {
			b := b
			if e := tx.PutBranch(&b); e != nil {
				return e
			}
		}
		return nil
	}))

	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		members, e := tx.BranchesInDomain("d1")
		if e != nil {
			return e
		}
		assert.Len(t, members, 2)
		return nil
	}))

	err := idx.View(ctx, func(tx store.Tx) error {
		_, e := tx.BranchesInDomain("nope")
		return e
	})
	require.ErrorIs(t, err, model.ErrUnknownDomain)
}

func TestCommitRoundTrip(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	commit := model.NewCommit([]string{"p1"}, "main", "alice", "hello",
		model.ChangeSet{}.Add(model.Change{Path: "a.bin", Type: model.ChangeAdd, Hash: "h1"}))
	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		return tx.PutCommit(commit)
	}))

	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		back, e := tx.GetCommit(commit.ID)
		if e != nil {
			return e
		}
		assert.Equal(t, commit.Message, back.Message)
		assert.Equal(t, commit.Changes, back.Changes)
		assert.True(t, commit.Timestamp.Equal(back.Timestamp))
		return nil
	}))

	err := idx.View(ctx, func(tx store.Tx) error {
		_, e := tx.GetCommit("deadbeef")
		return e
	})
	require.ErrorIs(t, err, model.ErrCommitNotFound)
}

func TestLockTables(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		for _, l := range []model.Lock{
			{DomainID: "d1", Path: "assets/a.bin", WorkspaceID: "w1", BranchName: "main"},
			{DomainID: "d1", Path: "assets/a.bin", WorkspaceID: "w2", BranchName: "feature", Metadata: []byte("audio")},
			{DomainID: "d1", Path: "b.bin", WorkspaceID: "w1", BranchName: "main"},
			{DomainID: "d2", Path: "assets/a.bin", WorkspaceID: "w3", BranchName: "island"},
		} {
			l := l
			if e := tx.PutLock(&l); e != nil {
				return e
			}
		}
		return nil
	}))

	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		holders, e := tx.Locks("d1", "assets/a.bin")
		if e != nil {
			return e
		}
		require.Len(t, holders, 2)

		all, e := tx.LocksInDomain("d1")
		if e != nil {
			return e
		}
		assert.Len(t, all, 3)

		other, e := tx.LocksInDomain("d2")
		if e != nil {
			return e
		}
		assert.Len(t, other, 1)
		return nil
	}))

	// deleting is idempotent
	for i := 0; i < 2; i++ {
		require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
			return tx.DeleteLock("d1", "assets/a.bin", "w1")
		}))
	}
	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		holders, e := tx.Locks("d1", "assets/a.bin")
		if e != nil {
			return e
		}
		require.Len(t, holders, 1)
		assert.Equal(t, "w2", holders[0].WorkspaceID)
		return nil
	}))
}

func TestLockPathIsolation(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	// a path containing the ':' separator must not bleed into the listing
	// of a path it happens to extend
	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		return tx.PutLock(&model.Lock{DomainID: "d1", Path: "a:b", WorkspaceID: "w1", BranchName: "main"})
	}))

	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		holders, e := tx.Locks("d1", "a")
		if e != nil {
			return e
		}
		assert.Empty(t, holders)

		holders, e = tx.Locks("d1", "a:b")
		if e != nil {
			return e
		}
		require.Len(t, holders, 1)
		assert.Equal(t, "a:b", holders[0].Path)
		return nil
	}))

	// releasing the shorter path leaves the longer one held
	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteLock("d1", "a", "w1")
	}))
	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		holders, e := tx.Locks("d1", "a:b")
		if e != nil {
			return e
		}
		assert.Len(t, holders, 1)
		return nil
	}))
}

func TestPendingMergeTable(t *testing.T) {
	idx := setupIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
		return tx.PutPendingMerge(&model.PendingMerge{
			Source: "feature", Target: "main",
			SourceHead: "s1", TargetHead: "t1",
			Paths: []string{"a.bin"},
		})
	}))

	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		records, e := tx.ListPendingMerges()
		if e != nil {
			return e
		}
		require.Len(t, records, 1)
		assert.Equal(t, "feature", records[0].Source)
		return nil
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, idx.Update(ctx, func(tx store.Tx) error {
			return tx.DeletePendingMerge("main", "feature")
		}))
	}
	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		records, e := tx.ListPendingMerges()
		if e != nil {
			return e
		}
		assert.Empty(t, records)
		return nil
	}))
}
