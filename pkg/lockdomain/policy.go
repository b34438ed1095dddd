package lockdomain

import "bytes"

// A MergePolicy decides whether two lock holders can share a path.
//
// Lock metadata is opaque to the manager: the policy is the only component
// that interprets it. A path may have more than one simultaneous holder iff
// the policy reports every pair of holders compatible.
type MergePolicy interface {
	Compatible(a, b []byte) bool
}

// PolicyFunc adapts a function to the MergePolicy interface
type PolicyFunc func(a, b []byte) bool

// Compatible calls the wrapped function
func (f PolicyFunc) Compatible(a, b []byte) bool {
	return f(a, b)
}

// Exclusive is the default policy: no sharing, ever.
func Exclusive() MergePolicy {
	return PolicyFunc(func(_, _ []byte) bool {
		return false
	})
}

// SameClass allows sharing between holders that declare the same non-empty
// merge class, e.g. both assert "this resource merges commutatively".
func SameClass() MergePolicy {
	return PolicyFunc(func(a, b []byte) bool {
		return len(a) > 0 && bytes.Equal(a, b)
	})
}
