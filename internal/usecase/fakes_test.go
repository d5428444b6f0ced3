package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"inzira-booking-client/internal/domain/entity"
)

type fakeScheduleRepo struct {
	calls     int
	params    entity.SearchParams
	schedules []entity.Schedule
	err       error
}

func (r *fakeScheduleRepo) Search(ctx context.Context, params entity.SearchParams) ([]entity.Schedule, error) {
	r.calls++
	r.params = params
	return r.schedules, r.err
}

type fakePointRepo struct {
	points map[int64][]entity.RoutePoint
	err    error
	calls  int
}

func (r *fakePointRepo) ListByDistrict(ctx context.Context, districtID int64) ([]entity.RoutePoint, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.points[districtID], nil
}

type fakeBookingRepo struct {
	guestCalls int
	authCalls  int
	last       entity.BookingRequest
	booking    *entity.Booking
	err        error

	found   *entity.Booking
	findErr error
	lookups []string
}

func (r *fakeBookingRepo) CreateAuthenticated(ctx context.Context, req entity.BookingRequest) (*entity.Booking, error) {
	r.authCalls++
	r.last = req
	return r.result()
}

func (r *fakeBookingRepo) CreateGuest(ctx context.Context, req entity.BookingRequest) (*entity.Booking, error) {
	r.guestCalls++
	r.last = req
	return r.result()
}

func (r *fakeBookingRepo) result() (*entity.Booking, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.booking == nil {
		return nil, nil
	}
	b := *r.booking
	return &b, nil
}

func (r *fakeBookingRepo) Get(ctx context.Context, id int64) (*entity.Booking, error) {
	r.lookups = append(r.lookups, fmt.Sprintf("id:%d", id))
	return r.lookup()
}

func (r *fakeBookingRepo) GetByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	r.lookups = append(r.lookups, "ref:"+reference)
	return r.lookup()
}

func (r *fakeBookingRepo) lookup() (*entity.Booking, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	if r.found == nil {
		return &entity.Booking{}, nil
	}
	b := *r.found
	return &b, nil
}

type fakePaymentRepo struct {
	intents     []entity.PaymentIntent
	response    *entity.PaymentResponse
	initErr     error
	tx          *entity.PaymentTransaction
	statusErr   error
	statusCalls int
	cancelled   []string
	cancelTx    *entity.PaymentTransaction
	cancelErr   error
	trace       *[]string
}

func (r *fakePaymentRepo) Initiate(ctx context.Context, intent entity.PaymentIntent) (*entity.PaymentResponse, error) {
	r.intents = append(r.intents, intent)
	if r.initErr != nil {
		return nil, r.initErr
	}
	return r.response, nil
}

func (r *fakePaymentRepo) Status(ctx context.Context, reference string) (*entity.PaymentTransaction, error) {
	r.statusCalls++
	if r.statusErr != nil {
		return nil, r.statusErr
	}
	tx := *r.tx
	return &tx, nil
}

func (r *fakePaymentRepo) Cancel(ctx context.Context, reference string) (*entity.PaymentTransaction, error) {
	r.cancelled = append(r.cancelled, reference)
	return r.cancelTx, r.cancelErr
}

type fakeRecoveryRepo struct {
	mu      sync.Mutex
	record  *entity.RecoveryRecord
	saveErr error
	loadErr error
	saves   int
	clears  int
	trace   *[]string
}

func (r *fakeRecoveryRepo) Save(ctx context.Context, record *entity.RecoveryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.trace != nil {
		*r.trace = append(*r.trace, "save")
	}
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *record
	r.record = &copied
	return nil
}

func (r *fakeRecoveryRepo) Load(ctx context.Context) (*entity.RecoveryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.record, nil
}

func (r *fakeRecoveryRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
	r.record = nil
	return nil
}

type fakeNavigator struct {
	urls  []string
	err   error
	trace *[]string
}

func (n *fakeNavigator) Navigate(ctx context.Context, url string) error {
	n.urls = append(n.urls, url)
	if n.trace != nil {
		*n.trace = append(*n.trace, "navigate")
	}
	return n.err
}

type fakeAuth struct {
	mu    sync.Mutex
	token string
}

func (a *fakeAuth) IsAuthenticated() bool { return a.Token() != "" }

func (a *fakeAuth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *fakeAuth) setToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// fakeStream delivers frames pushed into its channel
type fakeStream struct {
	frames chan PushFrame
	errs   chan error

	mu           sync.Mutex
	subscribed   []int64
	unsubscribed []int64
	closed       bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		frames: make(chan PushFrame, 16),
		errs:   make(chan error, 1),
	}
}

func (s *fakeStream) Next(ctx context.Context) (PushFrame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case err := <-s.errs:
		return PushFrame{}, err
	case <-ctx.Done():
		return PushFrame{}, ctx.Err()
	}
}

func (s *fakeStream) Subscribe(ctx context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribed = append(s.subscribed, scheduleID)
	return nil
}

func (s *fakeStream) Unsubscribe(ctx context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unsubscribed = append(s.unsubscribed, scheduleID)
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *fakeStream) subscriptions() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.subscribed...)
}

type fakeTransport struct {
	mu     sync.Mutex
	stream *fakeStream
	err    error
	opens  int
	token  string
}

func (t *fakeTransport) Open(ctx context.Context, token string) (SeatStream, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opens++
	t.token = token
	if t.err != nil {
		return nil, t.err
	}
	return t.stream, nil
}

func (t *fakeTransport) openCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens
}

// listRouter is a minimal FrameRouter
type listRouter struct {
	handlers []FrameHandler
}

func (r *listRouter) Register(handler FrameHandler) {
	r.handlers = append(r.handlers, handler)
}

func (r *listRouter) GetHandler(frameType string) FrameHandler {
	for _, h := range r.handlers {
		if h.CanHandle(frameType) {
			return h
		}
	}
	return nil
}

var errBoom = errors.New("boom")

func kigaliButare() (entity.District, entity.District) {
	return entity.District{ID: 1, Name: "Kigali"}, entity.District{ID: 2, Name: "Butare"}
}

func testSchedule(id int64, price float64, departure string, seats int) entity.Schedule {
	origin, destination := kigaliButare()
	return entity.Schedule{
		ID: id,
		AgencyRoute: entity.AgencyRoute{
			ID:     10,
			Agency: entity.Agency{ID: 3, AgencyName: "Volcano Express"},
			Route:  entity.Route{ID: 7, Origin: origin, Destination: destination},
			Price:  price,
			PickupPoints: []entity.RoutePoint{
				{ID: 100, Name: "Nyabugogo", District: &origin},
			},
			DropPoints: []entity.RoutePoint{
				{ID: 200, Name: "Huye Park", District: &destination},
			},
		},
		Bus:            entity.Bus{ID: 5, PlateNumber: "RAB 123 A", BusType: "COASTER", Capacity: 30},
		DepartureDate:  "2024-06-01",
		DepartureTime:  departure,
		ArrivalTime:    "23:00",
		AvailableSeats: seats,
		Status:         entity.ScheduleScheduled,
	}
}
