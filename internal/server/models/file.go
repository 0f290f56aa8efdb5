package models

import "time"

// File describes the metadata of a stored binary payload. The bytes
// themselves live in object storage under StorageKey; OwnerID is fixed at
// upload time and never changes.
type File struct {
	ID          FileID
	OwnerID     UserID
	Filename    string
	ContentType string
	StorageKey  string
	Size        int64
	CreatedAt   time.Time
}
