// Package cas provides a content-addressed layer over a storage.Store.
//
// Objects are keyed by the blake2b hash of their bytes: writing identical
// bytes twice yields the same key and stores nothing the second time.
package cas
