package ads

import "time"

// Ad is a listing owned by a single user.
type Ad struct {
	ID          int64
	Title       string
	Description string
	CreatedAt   time.Time
	OwnerID     int64
	OwnerEmail  string
}

// Patch carries the fields of a partial update. Nil fields keep their
// stored value.
type Patch struct {
	Title       *string
	Description *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil
}
