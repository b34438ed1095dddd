package model

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	blake2b "github.com/minio/blake2b-simd"
)

// CommitID derives the id of a commit as a content hash of its metadata and
// change set. The derivation is a pure function of parents, branch, author,
// timestamp and the ordered path to (type, hash) mapping, so replaying a
// stored commit reproduces its id and duplicate appends can be detected.
func CommitID(parents []string, branch, author string, timestamp time.Time, changes ChangeSet) string {
	h := blake2b.New512()

	writeField := func(s string) {
		var sz [8]byte
		binary.BigEndian.PutUint64(sz[:], uint64(len(s)))
		_, _ = h.Write(sz[:])
		_, _ = h.Write([]byte(s))
	}

	for _, p := range parents {
		writeField(p)
	}
	writeField(branch)
	writeField(author)
	writeField(timestamp.UTC().Format(time.RFC3339Nano))
	for _, c := range changes {
		writeField(c.Path)
		writeField(c.Type.String())
		writeField(c.Hash)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// NewCommit assembles a commit and derives its id.
func NewCommit(parents []string, branch, author, message string, changes ChangeSet) *Commit {
	ts := time.Now().UTC()
	return &Commit{
		ID:        CommitID(parents, branch, author, ts, changes),
		Parents:   parents,
		Branch:    branch,
		Author:    author,
		Message:   message,
		Timestamp: ts,
		Changes:   changes,
	}
}
