// Package archive stores run artifacts and bar files on a local
// directory or an S3-compatible bucket.
package archive

import "context"

// Storage is the artifact sink shared by the bar source, the artifact
// writers and the status reporter. Paths are slash separated.
type Storage interface {
	// Write stores data at the given path, replacing any previous object
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}
