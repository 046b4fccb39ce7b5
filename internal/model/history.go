package model

// HistoryEntry is an immutable record of an expired reservation.
type HistoryEntry struct {
	FloorName   string      `json:"floorName"`
	DeskLabel   string      `json:"deskLabel"`
	Reservation Reservation `json:"reservation"`
}

// HistoryKey identifies one expiry event.  Two entries with the same key are
// the same archival and are stored only once.
type HistoryKey struct {
	DeskLabel     string
	ReservedUntil string
}

// Key returns the deduplication key of the entry.
func (h HistoryEntry) Key() HistoryKey {
	return HistoryKey{DeskLabel: h.DeskLabel, ReservedUntil: h.Reservation.ReservedUntil}
}

// String renders the key for stores that need a flat string (Redis sets).
func (k HistoryKey) String() string {
	return k.DeskLabel + "\x1f" + k.ReservedUntil
}
