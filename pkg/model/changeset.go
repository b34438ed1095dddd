package model

import (
	"sort"
)

// ChangeSet is an ordered collection of changes with unique paths.
//
// The zero value is usable. Ordering is by path, which keeps the encoding
// of a change set stable for commit id derivation.
type ChangeSet []Change

// Add inserts or replaces the change for a path, keeping path order.
func (cs ChangeSet) Add(change Change) ChangeSet {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].Path >= change.Path })
	if i < len(cs) && cs[i].Path == change.Path {
		cs[i] = change
		return cs
	}
	cs = append(cs, Change{})
	copy(cs[i+1:], cs[i:])
	cs[i] = change
	return cs
}

// Remove drops the change for a path, reporting whether it was present.
func (cs ChangeSet) Remove(path string) (ChangeSet, bool) {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].Path >= path })
	if i >= len(cs) || cs[i].Path != path {
		return cs, false
	}
	return append(cs[:i], cs[i+1:]...), true
}

// Get returns the change recorded for a path, if any.
func (cs ChangeSet) Get(path string) (Change, bool) {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].Path >= path })
	if i < len(cs) && cs[i].Path == path {
		return cs[i], true
	}
	return Change{}, false
}

// Paths lists the paths touched by the change set, in order.
func (cs ChangeSet) Paths() []string {
	paths := make([]string, len(cs))
	for i, c := range cs {
		paths[i] = c.Path
	}
	return paths
}

// Intersect returns the paths touched by both change sets.
func (cs ChangeSet) Intersect(paths []string) []string {
	var common []string
	for _, p := range paths {
		if _, ok := cs.Get(p); ok {
			common = append(common, p)
		}
	}
	return common
}
