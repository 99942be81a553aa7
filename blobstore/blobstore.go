// Package blobstore implements the BlobStore contract: a typed
// mapping from string/UUID keys to opaque byte blobs, with pipelined
// multi-get/multi-put and a failure model that distinguishes transient
// transport errors from ordinary missing keys.
//
// Grounded on original_source/.../kvs.rs (Redis + pipelined
// multi-get/multi-put); backed here by github.com/go-redis/redis/v8,
// chosen per DESIGN.md over the teacher's buntdb because this is a
// shared store read/written across separate OS processes, which an
// embedded store cannot serve.
package blobstore

import "context"

// ErrNotFound is returned by Get/GetMany for a key with no value. It
// is distinct from ErrTransport: a missing key is an ordinary,
// non-fatal outcome (e.g. "no watch blob from that neighbor yet").
type ErrNotFound struct{ Key string }

func (e *ErrNotFound) Error() string { return "blobstore: not found: " + e.Key }

// ErrTransport wraps a connection-level failure; callers should treat
// it as retryable.
type ErrTransport struct{ Cause error }

func (e *ErrTransport) Error() string { return "blobstore: transport error: " + e.Cause.Error() }
func (e *ErrTransport) Unwrap() error { return e.Cause }

// Client is the BlobStore contract used by the rest of steadyum-go.
type Client interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)

	// PutMany writes every item in one pipelined round trip.
	PutMany(ctx context.Context, items map[string][]byte) error

	// GetMany reads every key in one pipelined round trip. The result
	// map omits keys that were not found; it never contains a nil
	// entry for a present-but-empty value.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)

	Close() error
}

// Well-known key helpers, matching spec.md §6's BlobStore key list.
const RegionListKey = "region_list"

func ColdBodyKey(uuid string) string { return "cold/" + uuid }
func WarmBodyKey(uuid string) string { return "warm/" + uuid }
