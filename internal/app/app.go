package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/domain/repository"
	"inzira-booking-client/internal/infrastructure/auth"
	"inzira-booking-client/internal/infrastructure/config"
	"inzira-booking-client/internal/infrastructure/persistence"
	"inzira-booking-client/internal/infrastructure/router"
	"inzira-booking-client/internal/interface/push"
	httpRepo "inzira-booking-client/internal/interface/repository"
	"inzira-booking-client/internal/usecase"
	"inzira-booking-client/pkg/logger"
	"inzira-booking-client/pkg/metrics"
)

const metricsNamespace = "inzira_client"

// App holds the wired client components
type App struct {
	Config  *config.Config
	Session *auth.Session
	Metrics *metrics.Metrics

	Register *usecase.SeatRegister
	Channel  *usecase.SeatChannel
	Search   *usecase.ScheduleSearchEngine
	Booking  *usecase.BookingOrchestrator
	Payment  *usecase.PaymentOrchestrator
	Poller   *usecase.PaymentStatusPoller
	Keeper   *usecase.RecoveryKeeper
	Resumer  *usecase.PaymentResumer

	logger  logger.Logger
	closers []func(context.Context) error
}

// Options are the pieces the binaries choose themselves
type Options struct {
	// Registerer receives the client metrics; nil keeps them unregistered
	Registerer prometheus.Registerer

	// Navigator hands redirect URLs to the user
	Navigator usecase.Navigator
}

// New wires repositories, the recovery backend, the seat channel and the usecases
func New(ctx context.Context, cfg *config.Config, opts Options, log logger.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Session: auth.NewSession(cfg.AuthToken, log),
		logger:  log,
	}

	if opts.Registerer != nil {
		a.Metrics = metrics.NewMetrics(metricsNamespace, opts.Registerer)
	} else {
		a.Metrics = metrics.NewNopMetrics()
	}

	limiter := rate.NewLimiter(rate.Limit(cfg.APIRateLimit), cfg.APIRateBurst)
	client := httpRepo.NewAPIClient(cfg.APIBaseURL, cfg.RequestTimeout, a.Session.Transport(http.DefaultTransport), limiter, log)

	scheduleRepo := httpRepo.NewHTTPScheduleRepository(client)
	pointRepo := httpRepo.NewHTTPRoutePointRepository(client)
	bookingRepo := httpRepo.NewHTTPBookingRepository(client)
	paymentRepo := httpRepo.NewHTTPPaymentRepository(client)

	recoveryRepo, err := a.openRecovery(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	var transport usecase.SeatTransport
	switch cfg.SeatTransport {
	case config.TransportWebSocket:
		transport = push.NewWebSocketTransport(cfg.SeatStreamURL, log)
	default:
		transport = push.NewSSETransport(cfg.SeatStreamURL, &http.Client{}, log)
	}

	frames := router.NewFrameRouter(log)
	a.Register = usecase.NewSeatRegister()
	a.Channel = usecase.NewSeatChannel(transport, a.Session, a.Register, frames, a.Metrics, log)
	frames.Register(usecase.NewSeatUpdateHandler(a.Register, a.Channel.Publish, a.Metrics, log))
	frames.Register(usecase.NewControlFrameHandler(log))
	a.Session.OnChange(func() {
		if err := a.Channel.OnAuthChanged(context.Background()); err != nil {
			log.Warn("Seat channel did not follow session change", "error", err)
		}
	})
	a.closers = append(a.closers, func(context.Context) error {
		a.Session.Close()
		a.Channel.Close()
		return nil
	})

	a.Search = usecase.NewScheduleSearchEngine(scheduleRepo, a.Channel, cfg.MaxSeatsPerBooking, a.Metrics, log)
	a.Booking = usecase.NewBookingOrchestrator(bookingRepo, pointRepo, a.Channel, cfg.MaxSeatsPerBooking, a.Metrics, log)
	a.Keeper = usecase.NewRecoveryKeeper(recoveryRepo, log)
	a.Payment = usecase.NewPaymentOrchestrator(paymentRepo, a.Keeper, opts.Navigator, a.Metrics, log)
	a.Poller = usecase.NewPaymentStatusPoller(paymentRepo, a.Metrics, log)
	a.Resumer = usecase.NewPaymentResumer(a.Keeper, a.Poller, a.Booking, log)

	log.Info("Client wired",
		"version", cfg.AppVersion,
		"api", cfg.APIBaseURL,
		"seatTransport", cfg.SeatTransport,
		"recoveryBackend", cfg.RecoveryBackend,
		"authenticated", a.Session.IsAuthenticated())
	return a, nil
}

func (a *App) openRecovery(ctx context.Context) (repository.RecoveryRepository, error) {
	cfg := a.Config

	switch cfg.RecoveryBackend {
	case config.BackendRedis:
		client, err := persistence.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return httpRepo.NewRedisRecoveryRepository(client, "inzira:"), nil

	case config.BackendMongo:
		client, db, err := persistence.NewMongoDatabase(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		return httpRepo.NewMongoRecoveryRepository(db), nil

	case config.BackendPostgres:
		db, err := persistence.NewPostgres(cfg.PostgresURI)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return persistence.ClosePostgres(db) })
		return httpRepo.NewGormRecoveryRepository(db)

	case config.BackendFile:
		return httpRepo.NewFileRecoveryRepository(cfg.RecoveryFile), nil
	}
	return nil, fmt.Errorf("unknown recovery backend %q", cfg.RecoveryBackend)
}

// Close releases connections in reverse order of opening
func (a *App) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("Shutdown error", "error", err)
		}
	}
	a.closers = nil
}

// ContactFor prefills the payment form from the booking's customer
func ContactFor(booking *entity.Booking) usecase.ContactInfo {
	return usecase.ContactInfo{
		CustomerName: booking.Customer.FullName(),
		Email:        booking.Customer.Email,
		PhoneNumber:  booking.Customer.PhoneNumber,
	}
}

// PaymentOptionsFor builds payment options from configuration
func PaymentOptionsFor(cfg *config.Config, allowCash bool) usecase.PaymentOptions {
	return usecase.PaymentOptions{
		AllowCash: allowCash,
		Currency:  cfg.PaymentCurrency,
	}
}
