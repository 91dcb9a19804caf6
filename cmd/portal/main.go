package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/angelmondragon/payportal-backend/internal/identity"
	"github.com/angelmondragon/payportal-backend/internal/paymentmethods"
	"github.com/angelmondragon/payportal-backend/internal/processor"
	"github.com/angelmondragon/payportal-backend/internal/reconcile"
	"github.com/angelmondragon/payportal-backend/internal/recordstore"
	"github.com/angelmondragon/payportal-backend/internal/stepup"
	"github.com/angelmondragon/payportal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
	"github.com/angelmondragon/payportal-backend/pkg/logger"
	"github.com/angelmondragon/payportal-backend/pkg/metrics"
	pkgstripe "github.com/angelmondragon/payportal-backend/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "portal"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "portal",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(context.Background(), cfg, logg); err != nil {
		logg.Error(context.Background(), "portal exited with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	customerID := cfg.Portal.CustomerID
	if customerID == "" {
		return fmt.Errorf("%s is required", config.EnvCustomerID)
	}
	ctx = logg.WithCustomerID(ctx, customerID)

	store, err := recordstore.NewFirestoreStore(ctx, recordstore.FirestoreParams{
		GCP:       cfg.GCP,
		Firestore: cfg.Firestore,
		Logger:    logg,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error(ctx, "error closing firestore store", err)
		}
	}()

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		return err
	}
	proc := processor.NewStripeClient(stripeClient)

	authenticator, err := stepup.New(stepup.Params{Processor: proc, Logger: logg})
	if err != nil {
		return err
	}

	registry, err := paymentmethods.NewService(paymentmethods.ServiceParams{
		Store:     store,
		Processor: proc,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}

	engine, err := reconcile.NewEngine(reconcile.Params{
		CustomerID:    customerID,
		Store:         store,
		Authenticator: authenticator,
		Logger:        logg,
		Metrics:       metrics.NewEngineMetrics(reg),
		OnError: func(paymentID string, err error) {
			message := err.Error()
			if typed := pkgerrors.As(err); typed != nil {
				message = typed.PublicMessage()
			}
			pctx := logg.WithPaymentID(ctx, paymentID)
			logg.Warn(logg.WithField(pctx, "display_message", message), "payment error surfaced")
		},
	})
	if err != nil {
		return err
	}

	session := identity.NewSession()
	cancelSession := session.Subscribe(func(snap identity.Snapshot) {
		if snap.State == identity.StateSignedOut {
			if err := engine.Close(); err != nil {
				logg.Error(ctx, "error closing engine on sign-out", err)
			}
		}
	})
	defer cancelSession()
	session.SignIn(identity.User{ID: customerID})

	if err := engine.Start(ctx); err != nil {
		return err
	}

	cancelMethods, err := store.SubscribePaymentMethods(ctx, customerID, func(docs []recordstore.Document) {
		if method, ok := paymentmethods.DefaultMethod(docs); ok {
			logg.Info(logg.WithPaymentMethodID(ctx, method.ID), "default payment method available")
		}
	})
	if err != nil {
		closeErr := engine.Close()
		return multierr.Append(err, closeErr)
	}
	defer cancelMethods()

	// The client secret itself goes to the presentation layer; here we only
	// report whether card setup is possible for this customer.
	if _, err := registry.BeginSetup(ctx, customerID); err != nil {
		logg.Warn(ctx, "card setup unavailable for customer")
	} else {
		logg.Info(ctx, "setup intent ready")
	}

	logg.Info(ctx, "portal running, waiting for pushes")
	<-ctx.Done()

	session.SignOut()
	return engine.Close()
}
