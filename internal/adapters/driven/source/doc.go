// Package source groups the ObjectSource adapters.
//
// Every backend lists leaf objects under a root with a slash-separated
// path relative to that root and a modification time in epoch seconds.
// Keys are derived from the relative path, so the same tree mirrored to
// a different backend yields the same partition keys.
//
//   - filesystem: a local directory tree, with optional fsnotify hints
//   - s3: an S3 bucket prefix via aws-sdk-go-v2
//   - minio: a MinIO or other S3-compatible bucket prefix via minio-go
package source
