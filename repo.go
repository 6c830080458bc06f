package pitfall

import (
	"context"
)

// UserStore defines the interface for credential lookups.
// Implementations are read-only from the service's point of view and must
// be safe for concurrent use.
type UserStore interface {
	// Lookup returns the record for username.
	//
	// Returns:
	//   - UserRecord: The matching record
	//   - error: ErrNotFound if no record has that username, or backend errors
	Lookup(ctx context.Context, username string) (UserRecord, error)

	// List returns every record ordered by ID.
	List(ctx context.Context) ([]UserRecord, error)
}

// FileStorage defines the interface for reading files from the uploads
// directory.
type FileStorage interface {
	// Read returns the contents of the file named name inside the base
	// directory. name has already been validated and sanitized.
	//
	// Returns:
	//   - []byte: File contents
	//   - error: ErrInvalidPath if name resolves outside the base directory,
	//     ErrNotFound if the file does not exist or is a directory, or other
	//     storage errors
	Read(ctx context.Context, name string) ([]byte, error)
}
