// Package storage provides the K/V blob store abstraction backing the
// keystone content-addressed layer.
//
// The engine only ever talks to storage.Store; the local file system
// implementation lives in the localfs subpackage. Remote backends plug in
// behind the same interface.
package storage
