package model

// BackingSlot identifies where an entity lives inside its backing context.
// The zero value is the unassigned state: the entity was created in this
// session and has not been appended to the store yet.
type BackingSlot struct {
	pos      int
	assigned bool
}

// SlotAt returns a slot bound to an existing record position.
func SlotAt(pos int) BackingSlot { return BackingSlot{pos: pos, assigned: true} }

// SlotUnassigned returns the unassigned slot.
func SlotUnassigned() BackingSlot { return BackingSlot{} }

// Assigned reports whether the slot refers to a record position.
func (s BackingSlot) Assigned() bool { return s.assigned }

// Pos returns the record position and whether the slot is assigned.
func (s BackingSlot) Pos() (int, bool) { return s.pos, s.assigned }

// BookmarkInfo is the user-visible part of a bookmark. Frequency doubles as
// the unique key.
type BookmarkInfo struct {
	Name        string
	Frequency   int64 // Hz
	Color       string
	Modulation  string
	LowFreqCut  int // Hz, relative band edge; zero when unset
	HighFreqCut int
}

// Bookmark is a catalogued frequency bookmark plus its persistence state.
type Bookmark struct {
	Info BookmarkInfo
	Slot BackingSlot

	// Dirty marks a bookmark created or modified in this session. Sync
	// re-writes dirty entries in place; the flag only resets on reload.
	Dirty bool
}
