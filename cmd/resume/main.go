package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"inzira-booking-client/internal/app"
	"inzira-booking-client/internal/domain"
	"inzira-booking-client/internal/domain/entity"
	"inzira-booking-client/internal/infrastructure/config"
	"inzira-booking-client/internal/usecase"
	"inzira-booking-client/pkg/logger"
)

func main() {
	reference := pflag.String("ref", "", "transaction reference (defaults to the one saved before the payment redirect)")
	cancelPending := pflag.Bool("cancel", false, "cancel the payment if it is still pending")
	bookingRef := pflag.String("booking-ref", "", "look a booking up by reference instead of resuming a payment")
	phone := pflag.String("phone", "", "phone number on the booking (with --booking-ref)")
	email := pflag.String("email", "", "email on the booking, used when --phone is empty (with --booking-ref)")
	pflag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := app.New(ctx, cfg, app.Options{}, log)
	if err != nil {
		log.Fatal("Failed to start client", "error", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Close(closeCtx)
	}()

	if *bookingRef != "" {
		booking, err := client.Booking.FindByReference(ctx, *bookingRef, *phone, *email)
		if err != nil {
			fmt.Fprintln(os.Stderr, domain.UserMessage(err, usecase.BookingNotFoundMessage))
			return
		}
		printBooking(booking)
		return
	}

	resumed, err := client.Resumer.Resume(ctx, *reference)
	switch {
	case resumed.Booking != nil:
		printBooking(resumed.Booking)
	case resumed.Record != nil:
		fmt.Printf("Booking %s (id %d)\n", resumed.Record.BookingReference, resumed.Record.ID)
	}
	printView(resumed.View)
	if err != nil {
		log.Debug("Status check failed", "error", err)
		return
	}

	if *cancelPending && resumed.View.CanCancel {
		view, err := client.Poller.CancelPayment(ctx, resumed.View)
		if err != nil {
			fmt.Fprintln(os.Stderr, view.ErrorMessage)
			return
		}
		printView(view)
	}
}

func printBooking(b *entity.Booking) {
	fmt.Printf("Booking %s (id %d): %s\n", b.BookingReference, b.ID, b.Status)
	fmt.Printf("  passenger: %s\n", b.Customer.FullName())
	fmt.Printf("  seats:     %d, total %.0f\n", b.NumberOfSeats, b.TotalAmount)
	if b.PaymentStatus != "" {
		fmt.Printf("  payment:   %s\n", b.PaymentStatus)
	}
}

func printView(view usecase.StatusView) {
	switch {
	case view.NoReference:
		fmt.Println("No payment reference found.")
	case view.ErrorMessage != "":
		fmt.Printf("%s (%s)\n", view.ErrorMessage, view.Reference)
		if view.CanRetry {
			fmt.Println("Run the command again to retry.")
		}
	default:
		tx := view.Transaction
		fmt.Printf("%s %s\n", view.Display.Icon, view.Display.Message)
		fmt.Printf("  reference: %s\n", view.Reference)
		if tx != nil && tx.Amount > 0 {
			fmt.Printf("  amount:    %.0f %s\n", tx.Amount, tx.Currency)
		}
		if tx != nil && tx.FailureReason != "" {
			fmt.Printf("  reason:    %s\n", tx.FailureReason)
		}
		if view.CanCancel {
			fmt.Println("  still pending; pass --cancel to cancel it")
		}
	}
}
