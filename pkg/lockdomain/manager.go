// Package lockdomain implements the lock domain manager: it tracks which
// branches share mutual-exclusion locks and grants or releases path-scoped
// locks within a domain.
//
// Domain membership is derived from branch parenting: attaching a branch
// merges its domain into the parent's, detaching splits the branch and its
// subtree out into a fresh domain. Attaching shares conflict risk,
// detaching isolates it.
package lockdomain

import (
	"context"

	"github.com/keystone-scm/keystone/pkg/model"
	"github.com/keystone-scm/keystone/pkg/store"
	"github.com/teris-io/shortid"
	"go.uber.org/zap"
)

type errorString string

func (e errorString) Error() string { return string(e) }

// ErrNotDomainRoot is returned by Attach when the branch still shares a
// domain with its own ancestors.
const ErrNotDomainRoot errorString = "branch is not the root of its lock domain"

// Option configures the manager
type Option func(*Manager)

// Policy sets the merge policy evaluating lock metadata compatibility
func Policy(policy MergePolicy) Option {
	return func(m *Manager) {
		m.policy = policy
	}
}

// Logger sets the zap logger
func Logger(logs *zap.Logger) Option {
	return func(m *Manager) {
		m.logs = logs
	}
}

// New creates a lock domain manager over a metadata index
func New(index store.Index, opts ...Option) *Manager {
	m := &Manager{
		index:  index,
		policy: Exclusive(),
		logs:   zap.NewNop(),
	}
	for _, apply := range opts {
		apply(m)
	}
	return m
}

// Manager owns all LockDomain and Lock state. No other component mutates it.
type Manager struct {
	index  store.Index
	policy MergePolicy
	logs   *zap.Logger
}

// NewDomainID allocates a fresh lock domain id
func NewDomainID() string {
	return shortid.MustGenerate()
}

// Acquire grants workspaceID a lock on path within a domain.
//
// The request succeeds when the merge policy reports the requested metadata
// compatible with every other current holder; otherwise a
// model.ConflictError carrying a blocking holder is returned. A workspace
// re-acquiring a path it already holds replaces its stored metadata, so the
// new metadata goes through the same check: the holders of a shared path
// stay pairwise compatible.
func (m *Manager) Acquire(ctx context.Context, domainID, path, workspaceID, branchName string, metadata []byte) error {
	return m.index.Update(ctx, func(tx store.Tx) error {
		if _, err := tx.BranchesInDomain(domainID); err != nil {
			return err
		}

		holders, err := tx.Locks(domainID, path)
		if err != nil {
			return err
		}
		for _, holder := range holders {
			if holder.WorkspaceID == workspaceID {
				continue
			}
			if !m.policy.Compatible(metadata, holder.Metadata) {
				return &model.ConflictError{DomainID: domainID, Path: path, Holder: holder}
			}
		}

		m.logs.Debug("lock granted",
			zap.String("domain", domainID),
			zap.String("path", path),
			zap.String("workspace", workspaceID),
			zap.Int("holders", len(holders)))
		return tx.PutLock(&model.Lock{
			DomainID:    domainID,
			Path:        path,
			WorkspaceID: workspaceID,
			BranchName:  branchName,
			Metadata:    metadata,
		})
	})
}

// Release drops workspaceID's lock on path. Releasing a lock that is not
// held is a no-op.
func (m *Manager) Release(ctx context.Context, domainID, path, workspaceID string) error {
	return m.index.Update(ctx, func(tx store.Tx) error {
		return tx.DeleteLock(domainID, path, workspaceID)
	})
}

// Locks lists every lock currently held in a domain
func (m *Manager) Locks(ctx context.Context, domainID string) ([]model.Lock, error) {
	var locks []model.Lock
	err := m.index.View(ctx, func(tx store.Tx) error {
		var e error
		locks, e = tx.LocksInDomain(domainID)
		return e
	})
	return locks, err
}

// Domain reports the lock domain a branch belongs to
func (m *Manager) Domain(ctx context.Context, branchName string) (model.LockDomain, error) {
	var domain model.LockDomain
	err := m.index.View(ctx, func(tx store.Tx) error {
		branch, err := tx.GetBranch(branchName)
		if err != nil {
			return err
		}
		members, err := tx.BranchesInDomain(branch.LockDomainID)
		if err != nil {
			return err
		}
		domain.ID = branch.LockDomainID
		for _, member := range members {
			domain.Branches = append(domain.Branches, member.Name)
		}
		return nil
	})
	return domain, err
}

// Attach merges branchName's lock domain into newParent's domain and makes
// newParent the branch's parent.
//
// The branch must currently be the root of its own domain. Locks of the
// former domain are carried into the target domain; a path locked in both
// domains by holders the policy cannot reconcile fails the whole attach
// with a model.LockCollisionError, leaving both domains unchanged.
func (m *Manager) Attach(ctx context.Context, branchName, newParent string) error {
	return m.index.Update(ctx, func(tx store.Tx) error {
		branch, err := tx.GetBranch(branchName)
		if err != nil {
			return err
		}
		parent, err := tx.GetBranch(newParent)
		if err != nil {
			return err
		}
		if branch.LockDomainID == parent.LockDomainID {
			// already sharing a domain, only record the parent link
			branch.Parent = parent.Name
			return tx.PutBranch(branch)
		}

		members, err := tx.BranchesInDomain(branch.LockDomainID)
		if err != nil {
			return err
		}
		subtree := subtreeSet(members, branch.Name)
		for _, member := range members {
			if !subtree[member.Name] {
				return ErrNotDomainRoot
			}
		}

		sourceLocks, err := tx.LocksInDomain(branch.LockDomainID)
		if err != nil {
			return err
		}
		targetLocks, err := tx.LocksInDomain(parent.LockDomainID)
		if err != nil {
			return err
		}
		targetByPath := make(map[string][]model.Lock)
		for _, lock := range targetLocks {
			targetByPath[lock.Path] = append(targetByPath[lock.Path], lock)
		}

		for _, lock := range sourceLocks {
			for _, holder := range targetByPath[lock.Path] {
				if holder.WorkspaceID == lock.WorkspaceID {
					continue
				}
				if !m.policy.Compatible(lock.Metadata, holder.Metadata) {
					return &model.LockCollisionError{
						Path:         lock.Path,
						SourceDomain: branch.LockDomainID,
						TargetDomain: parent.LockDomainID,
					}
				}
			}
		}

		// no collision: move branches and locks into the parent domain
		oldDomain := branch.LockDomainID
		for _, member := range members {
			member := member
			member.LockDomainID = parent.LockDomainID
			if member.Name == branch.Name {
				member.Parent = parent.Name
			}
			if err := tx.PutBranch(&member); err != nil {
				return err
			}
		}
		for _, lock := range sourceLocks {
			if err := tx.DeleteLock(oldDomain, lock.Path, lock.WorkspaceID); err != nil {
				return err
			}
			lock := lock
			lock.DomainID = parent.LockDomainID
			if err := tx.PutLock(&lock); err != nil {
				return err
			}
		}

		m.logs.Info("branch attached",
			zap.String("branch", branch.Name),
			zap.String("parent", parent.Name),
			zap.String("old_domain", oldDomain),
			zap.String("domain", parent.LockDomainID))
		return nil
	})
}

// Detach splits branchName and its not-already-detached descendants out
// into a fresh lock domain and returns the new domain id.
//
// Locks held by workspaces of the moved subtree follow it only when no
// holder outside the subtree has a lock on the same path; such paths stay
// in the old domain.
func (m *Manager) Detach(ctx context.Context, branchName string) (string, error) {
	newDomain := NewDomainID()
	err := m.index.Update(ctx, func(tx store.Tx) error {
		branch, err := tx.GetBranch(branchName)
		if err != nil {
			return err
		}
		oldDomain := branch.LockDomainID

		members, err := tx.BranchesInDomain(oldDomain)
		if err != nil {
			return err
		}
		subtree := subtreeSet(members, branch.Name)
		for _, member := range members {
			if !subtree[member.Name] {
				continue
			}
			member := member
			member.LockDomainID = newDomain
			if err := tx.PutBranch(&member); err != nil {
				return err
			}
		}

		locks, err := tx.LocksInDomain(oldDomain)
		if err != nil {
			return err
		}
		outside := make(map[string]bool)
		for _, lock := range locks {
			if !subtree[lock.BranchName] {
				outside[lock.Path] = true
			}
		}
		for _, lock := range locks {
			if !subtree[lock.BranchName] || outside[lock.Path] {
				continue
			}
			if err := tx.DeleteLock(oldDomain, lock.Path, lock.WorkspaceID); err != nil {
				return err
			}
			lock := lock
			lock.DomainID = newDomain
			if err := tx.PutLock(&lock); err != nil {
				return err
			}
		}

		m.logs.Info("branch detached",
			zap.String("branch", branch.Name),
			zap.String("old_domain", oldDomain),
			zap.String("domain", newDomain))
		return nil
	})
	if err != nil {
		return "", err
	}
	return newDomain, nil
}

// subtreeSet reports which domain members sit in the subtree rooted at
// root, following parent links without leaving the domain.
func subtreeSet(members []model.Branch, root string) map[string]bool {
	inDomain := make(map[string]model.Branch, len(members))
	for _, m := range members {
		inDomain[m.Name] = m
	}

	subtree := map[string]bool{root: true}
	var reaches func(name string, seen map[string]bool) bool
	reaches = func(name string, seen map[string]bool) bool {
		if subtree[name] {
			return true
		}
		if seen[name] {
			return false
		}
		seen[name] = true
		member, ok := inDomain[name]
		if !ok || member.Parent == "" {
			return false
		}
		if _, parentInDomain := inDomain[member.Parent]; !parentInDomain {
			return false
		}
		return reaches(member.Parent, seen)
	}
	for _, member := range members {
		if reaches(member.Name, map[string]bool{}) {
			subtree[member.Name] = true
		}
	}
	return subtree
}
