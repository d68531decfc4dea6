// Package kvcache adapts a remote key-value store to a generic cache contract:
// Start/Stop/IsReady for the connection, ValidateSegmentName for partitions, and
// Get/Set/Drop for items.
//
// Components:
//   - Provider: store client addressed by (namespace, set, key) with record TTLs
//     (Redis, Ristretto, BigCache, bbolt adapters under provider/).
//   - Codec[any]: (de)serializes the cached item (JSON by default).
//   - Envelope: every item is stored as a record with bins
//     primaryKey | item | stored (unix ms) | ttl (seconds).
//
// Keys:
//
//	kvcache.ID("user:1")                                  -> (partition, segment, "user:1")
//	kvcache.Ref{Namespace: "app", Segment: "users", ID: "1"} -> ("app", "users", "1")
//
// Misses are not errors:
//
//	env, err := c.Get(ctx, kvcache.ID("k"))
//	if err != nil { ... }    // ErrNotStarted, ErrInvalidKey, *OpError
//	if env == nil { ... }    // not cached
package kvcache
