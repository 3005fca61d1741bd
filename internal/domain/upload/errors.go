package upload

import "errors"

var (
	ErrInvalidFileType = errors.New("file type is not allowed")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrMalformedHash   = errors.New("client hash is not a sha256 hex digest")
	ErrHashMismatch    = errors.New("client hash does not match file content")

	// ErrDuplicateHash is the catalog-level uniqueness violation;
	// ErrDuplicateUpload is what the pipeline surfaces to callers.
	ErrDuplicateHash   = errors.New("content hash already cataloged")
	ErrDuplicateUpload = errors.New("file already exists")

	// ErrNotFound covers both an absent record and a record the caller may
	// not read. The two are deliberately indistinguishable so that probing
	// ids reveals nothing.
	ErrNotFound = errors.New("upload not found")

	// ErrFileMissing means the catalog row exists but its blob is gone —
	// an integrity anomaly, not an authorization outcome.
	ErrFileMissing = errors.New("file missing from storage")
)
