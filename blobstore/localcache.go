package blobstore

import (
	"context"

	"github.com/tidwall/buntdb"

	"github.com/steadyum/steadyum-go/cmn/nlog"
)

// LocalMirror is a per-Worker embedded write-through cache of the last
// blob this process itself published, backed by tidwall/buntdb (the
// teacher's own embedded-KV dependency). It is never the system of
// record — only Redis is — but lets a Worker's own /healthz or debug
// endpoints serve its last-published state without a network hop.
type LocalMirror struct {
	db *buntdb.DB
}

// NewLocalMirror opens an in-memory buntdb instance. path == ":memory:"
// keeps it process-local and ephemeral, matching its role as a debug
// mirror rather than durable storage.
func NewLocalMirror(path string) (*LocalMirror, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &LocalMirror{db: db}, nil
}

// Mirror records a Put this process just made to the shared store, for
// later local-only reads.
func (m *LocalMirror) Mirror(_ context.Context, key string, value []byte) {
	err := m.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, string(value), nil)
		return err
	})
	if err != nil {
		nlog.Warningf("localcache: mirror write failed for %s: %v", key, err)
	}
}

// Get reads back a mirrored value, reporting ok=false if never
// mirrored (the caller should fall back to the shared Client).
func (m *LocalMirror) Get(_ context.Context, key string) (value []byte, ok bool) {
	err := m.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		value = []byte(v)
		ok = true
		return nil
	})
	if err != nil && err != buntdb.ErrNotFound {
		nlog.Warningf("localcache: mirror read failed for %s: %v", key, err)
	}
	return value, ok
}

func (m *LocalMirror) Close() error { return m.db.Close() }
