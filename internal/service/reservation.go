package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/cinema-screenings/internal/fulfillment"
	"github.com/iliyamo/cinema-screenings/internal/model"
	"github.com/iliyamo/cinema-screenings/internal/queue"
)

// Fulfiller renders and dispatches the invoice of a committed
// reservation.
type Fulfiller interface {
	Fulfill(ctx context.Context, inv fulfillment.Invoice) error
}

// EventPublisher announces committed reservations.
type EventPublisher interface {
	PublishReservationCreated(ctx context.Context, ev queue.ReservationCreatedEvent) error
}

// ReservationInput is a booking request.
type ReservationInput struct {
	Seats  []model.Seat
	Client model.Client
}

// Confirmation is what a successful booking returns.
type Confirmation struct {
	Reservation model.Reservation
	Invoice     fulfillment.Invoice
}

// DefaultPublishTimeout bounds one reservation.created publish.
const DefaultPublishTimeout = 5 * time.Second

// ReservationService books seats on screenings.  Within one screening a
// seat number is claimed by at most one reservation.
type ReservationService struct {
	store          ScreeningStore
	prices         PriceTable
	fulfiller      Fulfiller
	events         EventPublisher
	publishTimeout time.Duration
	inflight       sync.WaitGroup
	currency       string
	loc            *time.Location
	log            *slog.Logger
	now            func() time.Time
}

// ReservationOption customizes a ReservationService.
type ReservationOption func(*ReservationService)

// WithEvents publishes reservation.created after each booking.  The
// publish runs in the background and never delays the booking.
func WithEvents(p EventPublisher) ReservationOption {
	return func(s *ReservationService) { s.events = p }
}

// WithPublishTimeout bounds each background publish.  Non-positive
// values keep DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// WithCurrency sets the currency printed on invoices.
func WithCurrency(c string) ReservationOption {
	return func(s *ReservationService) { s.currency = c }
}

// WithLocation sets the zone invoice dates are printed in.
func WithLocation(loc *time.Location) ReservationOption {
	return func(s *ReservationService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now for invoice timestamps.
func WithClock(now func() time.Time) ReservationOption {
	return func(s *ReservationService) { s.now = now }
}

// NewReservationService returns a reservation engine.  A nil price table
// falls back to DefaultPrices.
func NewReservationService(store ScreeningStore, prices PriceTable, f Fulfiller, log *slog.Logger, opts ...ReservationOption) *ReservationService {
	if prices == nil {
		prices = DefaultPrices
	}
	s := &ReservationService{
		store:          store,
		prices:         prices,
		fulfiller:      f,
		publishTimeout: DefaultPublishTimeout,
		currency:       "PLN",
		loc:            time.Local,
		log:            orDiscard(log),
		now:            time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns the reservations of a screening in booking order.
func (s *ReservationService) List(ctx context.Context, screeningID uint64) ([]model.Reservation, error) {
	sc, err := s.store.GetScreening(ctx, screeningID)
	if err != nil {
		return nil, translate(err, "load screening")
	}
	return sc.Reservations, nil
}

func (s *ReservationService) Get(ctx context.Context, screeningID, reservationID uint64) (*model.Reservation, error) {
	sc, err := s.store.GetScreening(ctx, screeningID)
	if err != nil {
		return nil, translate(err, "load screening")
	}
	i := sc.FindReservation(reservationID)
	if i < 0 {
		return nil, NotFoundf("no reservation with ID: %d", reservationID)
	}
	r := sc.Reservations[i]
	return &r, nil
}

// Delete removes a reservation from its screening.  Invoices already
// sent are not revoked.
func (s *ReservationService) Delete(ctx context.Context, screeningID, reservationID uint64) error {
	if err := s.store.DeleteReservation(ctx, screeningID, reservationID); err != nil {
		return translate(err, "delete reservation")
	}
	s.log.Info("reservation deleted", "screening_id", screeningID, "reservation_id", reservationID)
	return nil
}

// Create books every requested seat or none of them.  After the
// reservation is committed the invoice is rendered and mailed before
// Create returns.  A fulfillment failure is returned together with the
// confirmation: the seats stay booked.
func (s *ReservationService) Create(ctx context.Context, screeningID uint64, in ReservationInput) (*Confirmation, error) {
	if len(in.Seats) == 0 {
		return nil, InvalidArgumentf("at least one seat is required")
	}
	if err := validateClient(in.Client); err != nil {
		return nil, err
	}
	for _, seat := range in.Seats {
		if !seat.TypeOfSeat.Valid() {
			return nil, InvalidArgumentf("seat %d has unknown typeOfSeat %q", seat.SeatNumber, seat.TypeOfSeat)
		}
		if _, ok := s.prices.Price(seat.TypeOfSeat); !ok {
			return nil, InvalidArgumentf("no price for typeOfSeat %q", seat.TypeOfSeat)
		}
	}

	res := &model.Reservation{
		Seats:  append([]model.Seat(nil), in.Seats...),
		Client: in.Client,
	}
	var booked model.Screening
	check := func(sc model.Screening, r model.Reservation) error {
		taken := sc.BookedSeats()
		for _, seat := range r.Seats {
			if !sc.Room.HasSeat(seat.SeatNumber) {
				return InvalidArgumentf("seat %d is out of range; valid seats are 1-%d",
					seat.SeatNumber, sc.Room.NumberOfSeats)
			}
			if _, dup := taken[seat.SeatNumber]; dup {
				return Conflictf("seat %d already booked", seat.SeatNumber)
			}
			taken[seat.SeatNumber] = struct{}{}
		}
		booked = sc
		return nil
	}
	if err := s.store.AppendReservation(ctx, screeningID, res, check); err != nil {
		return nil, translate(err, "create reservation")
	}
	s.log.Info("reservation created",
		"screening_id", screeningID, "reservation_id", res.ID, "seats", res.SeatNumbers())

	conf := &Confirmation{Reservation: *res, Invoice: s.invoice(booked, *res)}
	s.publish(ctx, booked, conf)

	if s.fulfiller == nil {
		return conf, nil
	}
	if err := s.fulfiller.Fulfill(ctx, conf.Invoice); err != nil {
		s.log.Error("reservation fulfillment failed",
			"screening_id", screeningID, "reservation_id", res.ID, "invoice", conf.Invoice.Number, "err", err)
		if errors.Is(err, fulfillment.ErrTimeout) {
			return conf, Unavailable(err, "reservation %d is booked but the confirmation timed out", res.ID)
		}
		return conf, Internal(err, "reservation %d is booked but the confirmation could not be delivered", res.ID)
	}
	return conf, nil
}

func validateClient(c model.Client) error {
	if strings.TrimSpace(c.LastName) == "" {
		return InvalidArgumentf("client lastName is required")
	}
	if strings.TrimSpace(c.FirstName) == "" {
		return InvalidArgumentf("client firstName is required")
	}
	if strings.TrimSpace(c.Email) == "" {
		return InvalidArgumentf("client email is required")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return InvalidArgumentf("client email %q is invalid", c.Email)
	}
	return nil
}

// invoice groups the seats by type, one line item per type present.
func (s *ReservationService) invoice(sc model.Screening, r model.Reservation) fulfillment.Invoice {
	counts := make(map[model.SeatType]int)
	for _, seat := range r.Seats {
		counts[seat.TypeOfSeat]++
	}
	inv := fulfillment.Invoice{
		Number:        fmt.Sprintf("%s-%d", strings.ToUpper(uuid.NewString()[:8]), r.ID),
		ReservationID: r.ID,
		IssuedAt:      s.now().In(s.loc),
		Client:        fulfillment.Recipient{Name: r.Client.FullName(), Email: r.Client.Email},
		Screening: fulfillment.ScreeningSummary{
			ID:         sc.ID,
			MovieTitle: sc.Movie.Title,
			RoomName:   sc.Room.Name,
			Date:       sc.Date.In(s.loc),
		},
		Seats:    append([]model.Seat(nil), r.Seats...),
		Currency: s.currency,
	}
	for _, t := range model.SeatTypes {
		n := counts[t]
		if n == 0 {
			continue
		}
		unit, _ := s.prices.Price(t)
		li := fulfillment.LineItem{SeatType: t, Quantity: n, UnitPrice: unit, Total: unit * int64(n)}
		inv.LineItems = append(inv.LineItems, li)
		inv.Total += li.Total
	}
	return inv
}

// publish sends reservation.created on its own goroutine.  The publish
// context keeps the request's values but not its cancellation, and is
// bounded by publishTimeout.
func (s *ReservationService) publish(ctx context.Context, sc model.Screening, conf *Confirmation) {
	if s.events == nil {
		return
	}
	ev := queue.ReservationCreatedEvent{
		ReservationID: conf.Reservation.ID,
		ScreeningID:   sc.ID,
		MovieID:       sc.Movie.ID,
		RoomID:        sc.Room.ID,
		SeatNumbers:   conf.Reservation.SeatNumbers(),
		ClientEmail:   conf.Reservation.Client.Email,
		InvoiceNumber: conf.Invoice.Number,
		Total:         conf.Invoice.Total,
		Currency:      conf.Invoice.Currency,
		CreatedAt:     conf.Invoice.IssuedAt.UTC(),
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer cancel()
		if err := s.events.PublishReservationCreated(pubCtx, ev); err != nil {
			s.log.Warn("publish reservation.created failed", "reservation_id", ev.ReservationID, "err", err)
		}
	}()
}

// Wait blocks until every background publish has finished or ctx is
// done.
func (s *ReservationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
