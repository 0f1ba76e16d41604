// Package storage provides an S3-compatible object storage client used for
// snapshot payloads.
//
// The Client interface wraps the subset of Minio operations the application
// needs, which keeps consumers mockable in tests. NewClient configures a
// Minio client with strict connection-level timeouts so a misbehaving
// endpoint cannot hang the process; per-operation deadlines come from the
// caller's context.
//
// EnsureBucket is called once at startup to create the snapshot bucket when
// it is missing.
package storage
