// Package statestore persists per-broker session state (authentication
// cookies) as opaque key/value blobs.
//
// A blob is addressed by the broker's URL; the store derives a
// filesystem- and keyspace-safe key from it. Blobs are encoded as a
// versioned CBOR envelope so that a future format change can be detected
// and migrated instead of silently misread. Corrupt or unreadable blobs
// are treated as absent, never as errors: losing cookies only costs a
// re-login.
//
// Two backends are provided:
//
//   - FileStore: one file per broker under a state directory, written
//     with 0600 permissions. This is the default for interactive use.
//   - RedisStore: one key per broker under a common prefix, for shared
//     lab runners where the state directory is not durable.
//
// Saving an empty cookie set deletes the stored blob, which is how
// logout is made durable.
package statestore
