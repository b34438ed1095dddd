package bdgr

import (
	"github.com/dgraph-io/badger"
	jsoniter "github.com/json-iterator/go"
	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
)

var _ store.Tx = &indexTx{}

type indexTx struct {
	txn *badger.Txn
}

func (t *indexTx) GetBranch(name string) (*model.Branch, error) {
	b, err := mapBranchItemError(t.txn.Get(branchKey(name)))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *indexTx) PutBranch(branch *model.Branch) error {
	data, err := jsoniter.Marshal(branch)
	if err != nil {
		return err
	}
	return t.txn.Set(branchKey(branch.Name), data)
}

func (t *indexTx) ListBranches() ([]model.Branch, error) {
	var branches []model.Branch

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(branchPref)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		var b model.Branch
		if err := jsoniter.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, nil
}

func (t *indexTx) BranchesInDomain(domainID string) ([]model.Branch, error) {
	all, err := t.ListBranches()
	if err != nil {
		return nil, err
	}
	var members []model.Branch
	for _, b := range all {
		if b.LockDomainID == domainID {
			members = append(members, b)
		}
	}
	if len(members) == 0 {
		return nil, model.ErrUnknownDomain
	}
	return members, nil
}

func (t *indexTx) GetCommit(id string) (*model.Commit, error) {
	c, err := mapCommitItemError(t.txn.Get(commitKey(id)))
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (t *indexTx) PutCommit(commit *model.Commit) error {
	data, err := jsoniter.Marshal(commit)
	if err != nil {
		return err
	}
	return t.txn.Set(commitKey(commit.ID), data)
}

func (t *indexTx) Locks(domainID, path string) ([]model.Lock, error) {
	var locks []model.Lock

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := lockPathPrefix(domainID, path)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		lock, err := unmarshalLock(data)
		if err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, nil
}

func (t *indexTx) LocksInDomain(domainID string) ([]model.Lock, error) {
	var locks []model.Lock

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := lockDomainPrefix(domainID)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		lock, err := unmarshalLock(data)
		if err != nil {
			return nil, err
		}
		locks = append(locks, lock)
	}
	return locks, nil
}

func (t *indexTx) PutLock(lock *model.Lock) error {
	data, err := jsoniter.Marshal(lock)
	if err != nil {
		return err
	}
	return t.txn.Set(lockKey(lock.DomainID, lock.Path, lock.WorkspaceID), data)
}

func (t *indexTx) DeleteLock(domainID, path, workspaceID string) error {
	err := t.txn.Delete(lockKey(domainID, path, workspaceID))
	if err == badger.ErrKeyNotFound {
		// release is idempotent
		return nil
	}
	return err
}

func (t *indexTx) PutPendingMerge(pending *model.PendingMerge) error {
	data, err := jsoniter.Marshal(pending)
	if err != nil {
		return err
	}
	return t.txn.Set(mergeKey(pending.Target, pending.Source), data)
}

func (t *indexTx) ListPendingMerges() ([]model.PendingMerge, error) {
	var pendings []model.PendingMerge

	it := t.txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	prefix := []byte(mergePref)
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		data, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		pending, err := unmarshalPendingMerge(data)
		if err != nil {
			return nil, err
		}
		pendings = append(pendings, pending)
	}
	return pendings, nil
}

func (t *indexTx) DeletePendingMerge(target, source string) error {
	err := t.txn.Delete(mergeKey(target, source))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	return err
}
