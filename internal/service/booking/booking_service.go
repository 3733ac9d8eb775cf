package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/Domenick1991/busbooking/internal/events"
	"github.com/Domenick1991/busbooking/internal/repository"
	"github.com/Domenick1991/busbooking/internal/seatmap"
	"github.com/Domenick1991/busbooking/internal/service/availability"
	"github.com/Domenick1991/busbooking/internal/service/ledger"
)

type BookingUseCase interface {
	GetSeatMap(ctx context.Context, tripID string) (*SeatMap, error)
	Quote(ctx context.Context, tripID string, seatIDs []string) (*Quote, error)
	CommitBooking(ctx context.Context, rider domain.Principal, input CommitBookingInput) (*domain.Booking, error)
	GetBooking(ctx context.Context, who domain.Principal, bookingID string) (*domain.Booking, error)
	CancelByRider(ctx context.Context, rider domain.Principal, bookingID string) (*domain.Booking, error)
	CancelByOperator(ctx context.Context, operator domain.Principal, bookingID string) (*domain.Booking, error)
	ListForRider(ctx context.Context, rider domain.Principal, filter domain.BookingFilter) ([]domain.Booking, error)
	ListForOperator(ctx context.Context, operator domain.Principal, filter domain.BookingFilter) ([]domain.Booking, error)
	OperatorSummary(ctx context.Context, operator domain.Principal) (domain.BookingSummary, error)
}

// TripReader is the part of the trip catalog the booking core depends on.
type TripReader interface {
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
}

// Producer is satisfied by both the Kafka producer and the RabbitMQ publisher.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	trips              TripReader
	ledger             *ledger.Ledger
	resolver           *availability.Resolver
	seats              *seatmap.Generator
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	logger             *slog.Logger
	now                func() time.Time
}

type CommitBookingInput struct {
	TripID     string   `json:"trip_id"`
	SeatIDs    []string `json:"seat_ids"`
	PaymentRef string   `json:"payment_ref"`
}

type SeatMap struct {
	TripID         string            `json:"trip_id"`
	UnitPriceCents int64             `json:"unit_price_cents"`
	Seats          []domain.SeatView `json:"seats"`
	Available      int               `json:"available"`
	Booked         int               `json:"booked"`
}

type Quote struct {
	TripID          string   `json:"trip_id"`
	SeatIDs         []string `json:"seat_ids"`
	PassengerCount  int      `json:"passenger_count"`
	UnitPriceCents  int64    `json:"unit_price_cents"`
	TotalPriceCents int64    `json:"total_price_cents"`
}

type BookingServiceOption func(*BookingService)

// WithProducer enables event publishing to bookingTopic.
func WithProducer(p Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = p
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewBookingService(
	trips TripReader,
	bookings repository.BookingRepository,
	seats *seatmap.Generator,
	led *ledger.Ledger,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		trips:    trips,
		ledger:   led,
		resolver: availability.NewResolver(bookings),
		seats:    seats,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// GetSeatMap reports every seat of the trip as available or booked. The
// snapshot may be stale by the time the rider acts; commit re-checks.
func (s *BookingService) GetSeatMap(ctx context.Context, tripID string) (*SeatMap, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	held, err := s.resolver.Resolve(ctx, trip.ID)
	if err != nil {
		return nil, err
	}

	layout := s.seats.Generate(trip.TotalSeats)
	out := &SeatMap{
		TripID:         trip.ID,
		UnitPriceCents: trip.PriceCents,
		Seats:          make([]domain.SeatView, 0, len(layout)),
	}
	for _, seat := range layout {
		status := domain.SeatStatusAvailable
		if held.Has(seat.ID) {
			status = domain.SeatStatusBooked
			out.Booked++
		} else {
			out.Available++
		}
		out.Seats = append(out.Seats, domain.SeatView{Seat: seat, Status: status})
	}
	return out, nil
}

func (s *BookingService) Quote(ctx context.Context, tripID string, seatIDs []string) (*Quote, error) {
	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	selected, err := seatmap.Validate(s.seats.Generate(trip.TotalSeats), seatIDs)
	if err != nil {
		return nil, err
	}
	return &Quote{
		TripID:          trip.ID,
		SeatIDs:         seatmap.IDs(selected),
		PassengerCount:  len(selected),
		UnitPriceCents:  trip.PriceCents,
		TotalPriceCents: ledger.Total(len(selected), trip.PriceCents),
	}, nil
}

// CommitBooking is the only seat availability decision of record.
func (s *BookingService) CommitBooking(ctx context.Context, rider domain.Principal, input CommitBookingInput) (*domain.Booking, error) {
	trip, err := s.trips.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, err
	}

	booking, err := s.ledger.Commit(ctx, ledger.CommitRequest{
		Trip:       *trip,
		Rider:      rider,
		SeatIDs:    input.SeatIDs,
		PaymentRef: input.PaymentRef,
	})
	if err != nil {
		return nil, err
	}

	ev := events.NewBookingEvent(booking, s.now()).WithTrip(*trip)
	s.publish(ctx, ev)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, who domain.Principal, bookingID string) (*domain.Booking, error) {
	return s.ledger.Get(ctx, who, bookingID)
}

func (s *BookingService) CancelByRider(ctx context.Context, rider domain.Principal, bookingID string) (*domain.Booking, error) {
	booking, err := s.ledger.CancelByRider(ctx, rider, bookingID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewBookingEvent(booking, s.now()))
	return booking, nil
}

func (s *BookingService) CancelByOperator(ctx context.Context, operator domain.Principal, bookingID string) (*domain.Booking, error) {
	booking, err := s.ledger.CancelByOperator(ctx, operator, bookingID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.NewBookingEvent(booking, s.now()))
	return booking, nil
}

func (s *BookingService) ListForRider(ctx context.Context, rider domain.Principal, filter domain.BookingFilter) ([]domain.Booking, error) {
	bookings, err := s.ledger.ListForRider(ctx, rider)
	if err != nil {
		return nil, err
	}
	return filter.Apply(bookings), nil
}

func (s *BookingService) ListForOperator(ctx context.Context, operator domain.Principal, filter domain.BookingFilter) ([]domain.Booking, error) {
	bookings, err := s.ledger.ListForOperator(ctx, operator)
	if err != nil {
		return nil, err
	}
	return filter.Apply(bookings), nil
}

func (s *BookingService) OperatorSummary(ctx context.Context, operator domain.Principal) (domain.BookingSummary, error) {
	bookings, err := s.ledger.ListForOperator(ctx, operator)
	if err != nil {
		return domain.BookingSummary{}, err
	}
	return domain.Summarize(bookings), nil
}

// publish never fails the operation: the ledger write has already happened.
func (s *BookingService) publish(ctx context.Context, ev events.BookingEvent) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, ev.BookingID, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish booking event",
			"type", ev.Type, "booking_id", ev.BookingID, "error", fmt.Errorf("topic %s: %w", s.bookingTopic, err))
		return
	}
	if s.notificationsTopic == "" {
		return
	}
	if err := s.producer.Publish(ctx, s.notificationsTopic, ev.BookingID, ev); err != nil {
		s.logger.WarnContext(ctx, "failed to publish notification event",
			"type", ev.Type, "booking_id", ev.BookingID, "error", fmt.Errorf("topic %s: %w", s.notificationsTopic, err))
	}
}

var _ BookingUseCase = (*BookingService)(nil)
