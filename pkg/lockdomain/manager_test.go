package lockdomain

import (
	"context"
	"io/ioutil"
	"os"
	"testing"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"github.com/keystone-scm/keystone/pkg/store/bdgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIndex(t *testing.T) store.Index {
	t.Helper()
	td, err := ioutil.TempDir("", "keystone-lockdomain-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(td) })

	idx := bdgr.New(td)
	require.NoError(t, idx.Initialize())
	t.Cleanup(func() { idx.Close() })
	return idx
}

func seedBranches(t *testing.T, idx store.Index, branches ...model.Branch) {
	t.Helper()
	require.NoError(t, idx.Update(context.Background(), func(tx store.Tx) error {
		for i := range branches {
			if err := tx.PutBranch(&branches[i]); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestAcquireConflict(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx, model.Branch{Name: "main", LockDomainID: "d0"})
	mgr := New(idx)
	ctx := context.Background()

	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w1", "main", nil))

	err := mgr.Acquire(ctx, "d0", "a.bin", "w2", "main", nil)
	require.Error(t, err)
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "w1", conflict.Holder.WorkspaceID)
	assert.Equal(t, "a.bin", conflict.Path)

	// re-acquiring an already held lock succeeds
	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w1", "main", nil))

	locks, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	require.Len(t, locks, 1)
}

func TestAcquireUnknownDomain(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx, model.Branch{Name: "main", LockDomainID: "d0"})
	mgr := New(idx)

	err := mgr.Acquire(context.Background(), "no-such-domain", "a.bin", "w1", "main", nil)
	require.ErrorIs(t, err, model.ErrUnknownDomain)
}

func TestAcquireCompatibleOverride(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx, model.Branch{Name: "main", LockDomainID: "d0"})
	mgr := New(idx, Policy(SameClass()))
	ctx := context.Background()

	meta := []byte("commutative:navmesh")
	require.NoError(t, mgr.Acquire(ctx, "d0", "world.nav", "w1", "main", meta))
	require.NoError(t, mgr.Acquire(ctx, "d0", "world.nav", "w2", "main", meta))

	locks, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	assert.Len(t, locks, 2)

	// a third holder with a different merge class is refused
	err = mgr.Acquire(ctx, "d0", "world.nav", "w3", "main", []byte("commutative:other"))
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)

	// ... and so is one without metadata at all
	err = mgr.Acquire(ctx, "d0", "world.nav", "w4", "main", nil)
	require.ErrorAs(t, err, &conflict)
}

func TestReacquireKeepsHoldersCompatible(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx, model.Branch{Name: "main", LockDomainID: "d0"})
	mgr := New(idx, Policy(SameClass()))
	ctx := context.Background()

	meta := []byte("commutative:navmesh")
	require.NoError(t, mgr.Acquire(ctx, "d0", "world.nav", "w1", "main", meta))
	require.NoError(t, mgr.Acquire(ctx, "d0", "world.nav", "w2", "main", meta))

	// w1 cannot swap its metadata out from under w2
	err := mgr.Acquire(ctx, "d0", "world.nav", "w1", "main", nil)
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "w2", conflict.Holder.WorkspaceID)

	// re-acquiring with compatible metadata still succeeds
	require.NoError(t, mgr.Acquire(ctx, "d0", "world.nav", "w1", "main", meta))

	locks, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	require.Len(t, locks, 2)
	for _, lock := range locks {
		assert.Equal(t, meta, lock.Metadata)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx, model.Branch{Name: "main", LockDomainID: "d0"})
	mgr := New(idx)
	ctx := context.Background()

	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w1", "main", nil))
	require.NoError(t, mgr.Release(ctx, "d0", "a.bin", "w1"))
	require.NoError(t, mgr.Release(ctx, "d0", "a.bin", "w1"))
	require.NoError(t, mgr.Release(ctx, "d0", "never-locked.bin", "w1"))

	// the path is free again
	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w2", "main", nil))
}

func TestDetachIsolates(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature", Parent: "main", LockDomainID: "d0"},
	)
	mgr := New(idx)
	ctx := context.Background()

	newDomain, err := mgr.Detach(ctx, "feature")
	require.NoError(t, err)
	require.NotEqual(t, "d0", newDomain)

	// same path, two domains: both grants succeed
	require.NoError(t, mgr.Acquire(ctx, newDomain, "a.bin", "w1", "feature", nil))
	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w2", "main", nil))

	domain, err := mgr.Domain(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, newDomain, domain.ID)
	assert.Equal(t, []string{"feature"}, domain.Branches)
}

func TestDetachMovesExclusiveLocks(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature", Parent: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature-child", Parent: "feature", LockDomainID: "d0"},
	)
	mgr := New(idx, Policy(SameClass()))
	ctx := context.Background()

	meta := []byte("commutative:curve")
	// only feature's workspace touches feature.bin; shared.bin is held on
	// both sides of the future split
	require.NoError(t, mgr.Acquire(ctx, "d0", "feature.bin", "w1", "feature", nil))
	require.NoError(t, mgr.Acquire(ctx, "d0", "shared.bin", "w1", "feature", meta))
	require.NoError(t, mgr.Acquire(ctx, "d0", "shared.bin", "w2", "main", meta))

	newDomain, err := mgr.Detach(ctx, "feature")
	require.NoError(t, err)

	// the child branch moved with the subtree
	domain, err := mgr.Domain(ctx, "feature-child")
	require.NoError(t, err)
	assert.Equal(t, newDomain, domain.ID)

	moved, err := mgr.Locks(ctx, newDomain)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "feature.bin", moved[0].Path)

	stayed, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	require.Len(t, stayed, 2)
	for _, lock := range stayed {
		assert.Equal(t, "shared.bin", lock.Path)
	}
}

func TestAttachCollision(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature", LockDomainID: "d1"},
	)
	mgr := New(idx)
	ctx := context.Background()

	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w1", "main", nil))
	require.NoError(t, mgr.Acquire(ctx, "d1", "a.bin", "w2", "feature", nil))
	require.NoError(t, mgr.Acquire(ctx, "d1", "b.bin", "w2", "feature", nil))

	err := mgr.Attach(ctx, "feature", "main")
	var collision *model.LockCollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "a.bin", collision.Path)

	// both domains unchanged
	d0Locks, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	assert.Len(t, d0Locks, 1)
	d1Locks, err := mgr.Locks(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, d1Locks, 2)
	domain, err := mgr.Domain(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, "d1", domain.ID)
}

func TestAttachCarriesLocks(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature", LockDomainID: "d1"},
	)
	mgr := New(idx)
	ctx := context.Background()

	require.NoError(t, mgr.Acquire(ctx, "d1", "a.bin", "w2", "feature", nil))

	require.NoError(t, mgr.Attach(ctx, "feature", "main"))

	domain, err := mgr.Domain(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, "d0", domain.ID)
	assert.ElementsMatch(t, []string{"main", "feature"}, domain.Branches)

	locks, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, "a.bin", locks[0].Path)
	assert.Equal(t, "w2", locks[0].WorkspaceID)

	// the carried lock now excludes the rest of the merged domain
	err = mgr.Acquire(ctx, "d0", "a.bin", "w1", "main", nil)
	var conflict *model.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestAttachRequiresDomainRoot(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature", Parent: "main", LockDomainID: "d1"},
		model.Branch{Name: "feature-child", Parent: "feature", LockDomainID: "d1"},
		model.Branch{Name: "other", LockDomainID: "d2"},
	)
	mgr := New(idx)

	err := mgr.Attach(context.Background(), "feature-child", "other")
	require.ErrorIs(t, err, ErrNotDomainRoot)
}

func TestDetachThenAttachRestoresLockVisibility(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "feature", Parent: "main", LockDomainID: "d0"},
	)
	mgr := New(idx)
	ctx := context.Background()

	require.NoError(t, mgr.Acquire(ctx, "d0", "a.bin", "w1", "feature", nil))

	newDomain, err := mgr.Detach(ctx, "feature")
	require.NoError(t, err)
	require.NoError(t, mgr.Attach(ctx, "feature", "main"))

	// back in the original domain, with the lock visible again
	domain, err := mgr.Domain(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, "d0", domain.ID)

	locks, err := mgr.Locks(ctx, "d0")
	require.NoError(t, err)
	require.Len(t, locks, 1)
	assert.Equal(t, "a.bin", locks[0].Path)

	_, err = mgr.Locks(ctx, newDomain)
	require.NoError(t, err)
}

func TestDomainPartition(t *testing.T) {
	idx := setupIndex(t)
	seedBranches(t, idx,
		model.Branch{Name: "main", LockDomainID: "d0"},
		model.Branch{Name: "a", Parent: "main", LockDomainID: "d0"},
		model.Branch{Name: "b", Parent: "a", LockDomainID: "d0"},
		model.Branch{Name: "c", Parent: "main", LockDomainID: "d0"},
	)
	mgr := New(idx)
	ctx := context.Background()

	_, err := mgr.Detach(ctx, "a")
	require.NoError(t, err)

	// every branch still belongs to exactly one domain
	var branches []model.Branch
	require.NoError(t, idx.View(ctx, func(tx store.Tx) error {
		var e error
		branches, e = tx.ListBranches()
		return e
	}))
	require.Len(t, branches, 4)
	domains := make(map[string][]string)
	for _, b := range branches {
		require.NotEmpty(t, b.LockDomainID)
		domains[b.LockDomainID] = append(domains[b.LockDomainID], b.Name)
	}
	require.Len(t, domains, 2)
	assert.ElementsMatch(t, []string{"main", "c"}, domains["d0"])
}
