package models

import "time"

// Share grants a non-owner read access to a single file. At most one Share
// exists per (FileID, GranteeID) pair; the owner is never a grantee.
type Share struct {
	ID        string
	FileID    FileID
	GranteeID UserID
	CreatedAt time.Time
}
