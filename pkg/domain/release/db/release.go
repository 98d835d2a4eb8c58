package db

import "context"

// Interface is the catalog client for release tagging.
type Interface interface {
	// Tag snapshots every current newest-version file id under the release
	// number. Append-only; tagging the same release twice adds only files
	// not yet tagged.
	//
	// Returns how many files were tagged.
	Tag(ctx context.Context, releaseNum int) (int, error)

	// File ids tagged under the release number, in id order.
	FilesOf(ctx context.Context, releaseNum int) ([]int64, error)
}
