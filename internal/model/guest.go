package model

// Guest is a current booking flattened with the floor and desk it belongs to.
// It backs the "all reservations" listing.
type Guest struct {
	FloorID     int64       `json:"floorId"`
	FloorName   string      `json:"floorName"`
	DeskID      int64       `json:"deskId"`
	DeskLabel   string      `json:"deskLabel"`
	Reservation Reservation `json:"reservation"`
}
