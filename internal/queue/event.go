// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Queue names.  Both queues are durable and use the default exchange with the
// queue name as routing key.
const (
	ReservationExpiredQueue = "reservation.expired"
	GuestMessageQueue       = "guest.message"
)

// ReservationExpiredEvent is published by the sweeper for every reservation
// it moves into the history log.  It carries the full booking so consumers
// never need to query the floor store.
type ReservationExpiredEvent struct {
	FloorName     string `json:"floor_name"`
	DeskLabel     string `json:"desk_label"`
	GuestName     string `json:"guest_name"`
	Phone         string `json:"phone"`
	Persons       int    `json:"persons"`
	ReservedAt    string `json:"reserved_at"`
	ReservedUntil string `json:"reserved_until"`
	ExpiredAt     string `json:"expired_at"`
}

// GuestMessageEvent is published when staff ask to message a guest.  Delivery
// to the guest is out of scope; the consumer only records the request.
type GuestMessageEvent struct {
	FloorID       int64  `json:"floor_id"`
	FloorName     string `json:"floor_name"`
	DeskID        int64  `json:"desk_id"`
	DeskLabel     string `json:"desk_label"`
	GuestName     string `json:"guest_name"`
	Phone         string `json:"phone"`
	ReservedUntil string `json:"reserved_until"`
	Message       string `json:"message"`
	RequestedAt   string `json:"requested_at"`
}
