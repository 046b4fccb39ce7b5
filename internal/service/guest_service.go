package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/desk-reservation-planner/internal/model"
	q "github.com/iliyamo/desk-reservation-planner/internal/queue"
	"github.com/iliyamo/desk-reservation-planner/internal/repository"
)

// maxFloorFetch bounds the concurrent GetFloor calls of one listing.
const maxFloorFetch = 4

// DefaultGuestMessage is sent when a notify request carries no text.
const DefaultGuestMessage = "Reminder: your desk reservation is coming up."

// GuestService lists the current bookings across all floors and forwards
// messages to their guests.
type GuestService struct {
	floors    repository.FloorGateway
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewGuestService wires the guest directory.  A nil publisher falls back to
// logging the messages.
func NewGuestService(floors repository.FloorGateway, publisher Publisher, logger *zap.Logger) *GuestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if publisher == nil {
		publisher = NewLogPublisher(logger)
	}
	return &GuestService{floors: floors, publisher: publisher, logger: logger.Named("guests"), now: time.Now}
}

// List returns every reserved desk, grouped by floor in floor order and by
// desk order within a floor.
func (s *GuestService) List(ctx context.Context) ([]model.Guest, error) {
	floors, err := s.floors.ListFloors(ctx)
	if err != nil {
		return nil, err
	}

	perFloor := make([][]model.Guest, len(floors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFloorFetch)
	for i, summary := range floors {
		i, summary := i, summary
		g.Go(func() error {
			f, err := s.floors.GetFloor(gctx, summary.ID)
			if err != nil {
				return err
			}
			for _, d := range f.Desks {
				if d.Reservation == nil {
					continue
				}
				perFloor[i] = append(perFloor[i], model.Guest{
					FloorID:     f.ID,
					FloorName:   f.Name,
					DeskID:      d.ID,
					DeskLabel:   d.Label,
					Reservation: *d.Reservation,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := []model.Guest{}
	for _, guests := range perFloor {
		out = append(out, guests...)
	}
	return out, nil
}

// NotifyAll sends message to every current guest and returns how many
// messages were handed to the publisher.  Delivery failures are logged and
// do not stop the remaining guests.
func (s *GuestService) NotifyAll(ctx context.Context, message string) (int, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = DefaultGuestMessage
	}
	guests, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	requestedAt := s.now().UTC().Format(time.RFC3339)
	sent := 0
	for _, gu := range guests {
		ev := q.GuestMessageEvent{
			FloorID:       gu.FloorID,
			FloorName:     gu.FloorName,
			DeskID:        gu.DeskID,
			DeskLabel:     gu.DeskLabel,
			GuestName:     gu.Reservation.Name,
			Phone:         gu.Reservation.Phone,
			ReservedUntil: gu.Reservation.ReservedUntil,
			Message:       message,
			RequestedAt:   requestedAt,
		}
		if err := s.publisher.PublishGuestMessage(ctx, ev); err != nil {
			s.logger.Warn("guest message not sent", zap.String("desk", gu.DeskLabel), zap.Error(err))
			continue
		}
		sent++
	}
	s.logger.Info("guest messages queued", zap.Int("guests", len(guests)), zap.Int("sent", sent))
	return sent, nil
}
