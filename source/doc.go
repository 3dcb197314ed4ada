// Package source provides the transports a resolver uses to fetch indices
// and fragments, and a [Router] that picks one by URI scheme.
//
// Transports live in sub-packages:
//   - source/http: HTTP and HTTPS GET requests
//   - source/file: local files, as file URIs or plain paths
//   - source/s3: objects in Amazon S3 (s3://bucket/key)
package source
