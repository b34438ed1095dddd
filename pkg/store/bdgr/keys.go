package bdgr

// Key layout. Branch names, commit ids, domain ids and workspace ids never
// contain a separator. Paths may contain ':', so the segments of a lock key
// are joined with a NUL byte instead, which cannot appear in a file path.
// This keeps the per-path prefix exact: a lock on "a:b" never shows up under
// the prefix for "a".
const (
	branchPref = "branch:"
	commitPref = "commit:"
	lockPref   = "lock:"
	mergePref  = "merge:"
	keySep     = ":"
	lockSep    = "\x00"
)

func branchKey(name string) []byte {
	return []byte(branchPref + name)
}

func commitKey(id string) []byte {
	return []byte(commitPref + id)
}

func lockKey(domainID, path, workspaceID string) []byte {
	return []byte(lockPref + domainID + lockSep + path + lockSep + workspaceID)
}

func lockPathPrefix(domainID, path string) []byte {
	return []byte(lockPref + domainID + lockSep + path + lockSep)
}

func lockDomainPrefix(domainID string) []byte {
	return []byte(lockPref + domainID + lockSep)
}

func mergeKey(target, source string) []byte {
	return []byte(mergePref + target + keySep + source)
}
