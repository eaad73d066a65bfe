// Package s3 archives run artifacts to S3-compatible object storage.
//
// It is optional: when a bucket is configured, the artifacts directory of a
// run is uploaded under a per-run key prefix before the directory is removed.
package s3
