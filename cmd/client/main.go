package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"inzira-booking-client/internal/app"
	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/infrastructure/config"
	"inzira-booking-client/internal/usecase"
	"inzira-booking-client/pkg/logger"
)

type options struct {
	origin      string
	destination string
	date        string
	link        string
	bucket      string
	sortBy      string

	scheduleID int64
	pickupID   int64
	dropID     int64
	seats      int
	firstName  string
	lastName   string
	email      string
	phone      string

	payMethod string
	allowCash bool
	bookingID int64

	watch time.Duration
}

func parseFlags() options {
	var opts options
	pflag.StringVar(&opts.origin, "origin", "", "origin district id")
	pflag.StringVar(&opts.destination, "destination", "", "destination district id")
	pflag.StringVar(&opts.date, "date", time.Now().Format("2006-01-02"), "departure date (YYYY-MM-DD)")
	pflag.StringVar(&opts.link, "link", "", "deep link query, e.g. ?originId=1&destinationId=2&departureDate=2024-06-01")
	pflag.StringVar(&opts.bucket, "time", "", "departure window: morning, afternoon or evening")
	pflag.StringVar(&opts.sortBy, "sort", "", "order: price, early or late")

	pflag.Int64Var(&opts.scheduleID, "book", 0, "schedule id to book")
	pflag.Int64Var(&opts.pickupID, "pickup", 0, "pickup point id")
	pflag.Int64Var(&opts.dropID, "drop", 0, "drop point id")
	pflag.IntVar(&opts.seats, "seats", 1, "number of seats")
	pflag.StringVar(&opts.firstName, "first-name", "", "guest first name (books as guest when set)")
	pflag.StringVar(&opts.lastName, "last-name", "", "guest last name")
	pflag.StringVar(&opts.email, "email", "", "contact email")
	pflag.StringVar(&opts.phone, "phone", "", "contact phone number")

	pflag.StringVar(&opts.payMethod, "pay", "", "payment method: STRIPE, BANK_CARD, MOBILE_MONEY, BANK_TRANSFER or CASH")
	pflag.BoolVar(&opts.allowCash, "allow-cash", false, "offer cash payment")
	pflag.Int64Var(&opts.bookingID, "booking-id", 0, "pay for an existing booking instead of searching")

	pflag.DurationVar(&opts.watch, "watch", 0, "keep printing live seat updates for this long")
	pflag.Parse()
	return opts
}

// stdoutNavigator hands the gateway URL to the user
type stdoutNavigator struct{}

func (stdoutNavigator) Navigate(ctx context.Context, url string) error {
	_, err := fmt.Printf("Open this URL in your browser to complete payment:\n%s\n", url)
	return err
}

func main() {
	opts := parseFlags()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	// Set up context with cancellation on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := app.New(ctx, cfg, app.Options{
		Registerer: prometheus.DefaultRegisterer,
		Navigator:  stdoutNavigator{},
	}, log)
	if err != nil {
		log.Fatal("Failed to start client", "error", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return run(gctx, client, opts, log)
	})

	if cfg.MetricsPort != "" {
		g.Go(func() error {
			return serveMetrics(gctx, ":"+cfg.MetricsPort, log)
		})
	}

	err = g.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	client.Close(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, domain.UserMessage(err, err.Error()))
		log.Sync()
		os.Exit(1)
	}
}

func serveMetrics(ctx context.Context, addr string, log logger.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Healthy"))
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting metrics server", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Error("Metrics server error", "error", err)
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics server shutdown error", "error", err)
	}
	return nil
}

func run(ctx context.Context, client *app.App, opts options, log logger.Logger) error {
	// The seat channel needs a signed-in session
	if err := client.Channel.OnAuthChanged(ctx); err != nil {
		log.Warn("Live seat updates unavailable", "error", err)
	}

	if opts.bookingID != 0 {
		return payExisting(ctx, client, opts)
	}

	var (
		result *usecase.SearchResult
		err    error
	)
	if opts.link != "" {
		result, err = client.Search.SearchFromDeepLink(ctx, opts.link)
	} else {
		result, err = client.Search.SearchFromForm(ctx, opts.origin, opts.destination, opts.date)
	}
	if err != nil {
		return err
	}

	if opts.bucket != "" && !usecase.IsKnownBucket(opts.bucket) {
		return domain.ValidationError{Field: "time", Msg: "must be morning, afternoon or evening"}
	}
	shown := usecase.FilterAndSort(result.Schedules, entity.ScheduleFilter{TimeBucket: opts.bucket, SortBy: opts.sortBy})
	printSchedules(result, client.Search.Overlay(shown))

	if opts.watch > 0 {
		client.Channel.OnUpdate(func(e entity.SeatUpdateEvent) {
			fmt.Printf("  schedule %d now has %d seats\n", e.ScheduleID, e.AvailableSeats)
		})
	}

	if opts.scheduleID != 0 {
		booking, err := book(ctx, client, result, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Booking %s created: %d seat(s), total %.0f\n", booking.BookingReference, booking.NumberOfSeats, booking.TotalAmount)

		if opts.payMethod != "" {
			if err := pay(ctx, client, booking, opts); err != nil {
				return err
			}
		}
	}

	if opts.watch > 0 {
		fmt.Printf("Watching seat updates for %s...\n", opts.watch)
		select {
		case <-time.After(opts.watch):
		case <-ctx.Done():
		}
	}
	return nil
}

func printSchedules(result *usecase.SearchResult, live []usecase.LiveSchedule) {
	if result.NoMatches() {
		fmt.Println("No schedules found for the selected route and date.")
		return
	}
	fmt.Printf("%d schedule(s) on %s:\n", len(live), result.Params.DepartureDate)
	for _, s := range live {
		label := "Book Now"
		if !s.Bookable {
			label = "Sold Out"
		}
		fmt.Printf("  #%-5d %s  %-20s %-5s -> %-5s %8.0f  %3d seats  %s\n",
			s.ID,
			s.AgencyRoute.Agency.AgencyName,
			s.Origin().Name+" - "+s.Destination().Name,
			s.DepartureTime,
			s.ArrivalTime,
			s.Price(),
			s.EffectiveSeats,
			label)
	}
}

func book(ctx context.Context, client *app.App, result *usecase.SearchResult, opts options) (*entity.Booking, error) {
	var schedule *entity.Schedule
	for i := range result.Schedules {
		if result.Schedules[i].ID == opts.scheduleID {
			schedule = &result.Schedules[i]
			break
		}
	}
	if schedule == nil {
		return nil, domain.ValidationError{Field: "book", Msg: "schedule " + strconv.FormatInt(opts.scheduleID, 10) + " is not in the search results"}
	}

	req := entity.BookingRequest{
		ScheduleID:    schedule.ID,
		PickupPointID: opts.pickupID,
		DropPointID:   opts.dropID,
		NumberOfSeats: opts.seats,
	}

	customerID, ok := client.Session.CustomerID()
	if opts.firstName != "" || !ok {
		req.Guest = &entity.GuestDetails{
			FirstName:   opts.firstName,
			LastName:    opts.lastName,
			Email:       opts.email,
			PhoneNumber: opts.phone,
		}
	} else {
		req.CustomerID = customerID
	}

	return client.Booking.CreateBooking(ctx, schedule, req)
}

// payExisting retries payment for a booking made earlier
func payExisting(ctx context.Context, client *app.App, opts options) error {
	booking, err := client.Booking.GetBooking(ctx, opts.bookingID)
	if err != nil {
		return err
	}
	fmt.Printf("Booking %s: %d seat(s), total %.0f, status %s\n",
		booking.BookingReference,
		booking.NumberOfSeats,
		booking.TotalAmount,
		booking.Status)

	if opts.payMethod == "" {
		fmt.Println("Pass --pay to pay for this booking.")
		return nil
	}
	return pay(ctx, client, booking, opts)
}

func pay(ctx context.Context, client *app.App, booking *entity.Booking, opts options) error {
	contact := app.ContactFor(booking)
	if opts.email != "" {
		contact.Email = opts.email
	}
	if opts.phone != "" {
		contact.PhoneNumber = opts.phone
	}

	flow := client.Payment.NewFlow(booking, app.PaymentOptionsFor(client.Config, opts.allowCash), usecase.PaymentCallbacks{
		OnSuccess: func(o usecase.PaymentOutcome) {
			fmt.Printf("Payment successful. Transaction %s\n", o.TransactionReference)
		},
		OnFailure: func(o usecase.PaymentOutcome) {
			fmt.Printf("Payment failed: %s\n", o.Message)
		},
	})

	outcome, err := flow.Initiate(ctx, strings.ToUpper(opts.payMethod), contact)
	if err != nil {
		return err
	}

	switch outcome.State {
	case usecase.PaymentRedirecting:
		fmt.Println("After paying, run the resume command to check the result.")
	case usecase.PaymentAwaitingManualConfirmation:
		if outcome.Instructions != "" {
			fmt.Println(outcome.Instructions)
		}
		fmt.Printf("Payment pending. Check it later with: resume --ref %s\n", outcome.TransactionReference)
	}
	return nil
}
