package models

import "github.com/google/uuid"

// UserID and FileID are distinct identifier types so a file id can never be
// passed where a user id is expected. Both hold a canonical UUID string.
type (
	UserID string
	FileID string
)

func (id UserID) String() string { return string(id) }
func (id FileID) String() string { return string(id) }

// ParseUserID validates s as a UUID and returns it as a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return UserID(u.String()), nil
}

// ParseFileID validates s as a UUID and returns it as a FileID.
func ParseFileID(s string) (FileID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return FileID(u.String()), nil
}
