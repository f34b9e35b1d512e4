package app

import (
	"context"
	"errors"
	"time"

	"github.com/appetiteclub/apt"
	aptevents "github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/middleware"
	"github.com/tableside/expo/internal/board"
	"github.com/tableside/expo/internal/events"
	"github.com/tableside/expo/internal/orders"
	"github.com/tableside/expo/internal/stream"
	"github.com/tableside/expo/pkg"
	"github.com/tableside/expo/pkg/event"
)

const (
	AppName    = "expo"
	AppVersion = "0.1.0"
)

// App encapsulates the expo display gateway
type App struct {
	config *apt.Config
	logger apt.Logger
	micro  *apt.Micro
}

// New creates a new expo application
func New(config *apt.Config, logger apt.Logger) (*App, error) {
	return &App{
		config: config,
		logger: logger,
	}, nil
}

// Initialize sets up all dependencies and components
func (a *App) Initialize(ctx context.Context) error {
	// Upstream order service client
	ordersURL, _ := a.config.GetString("services.order.url")
	if ordersURL == "" {
		return errors.New("services.order.url is required")
	}
	upstream := orders.NewDataAccess(apt.NewServiceClient(ordersURL))

	// NATS is optional: without it, alerts go to displays only and the
	// poll cadence alone drives refreshes.
	natsURL, _ := a.config.GetString("nats.url")

	var alertPublisher aptevents.Publisher
	var orderSubscriber *pkg.NATSSubscriber
	var alertStream *pkg.NATSStream
	var natsPublisher *pkg.NATSPublisher

	if natsURL != "" {
		streamEnabled, _ := a.config.GetString("nats.stream.enabled")
		if streamEnabled == "true" {
			// Persistent alert stream so pager integrations can replay
			// escalations missed during their own restarts.
			streamCfg := pkg.NATSStreamConfig{
				URL:          natsURL,
				StreamName:   "EXPO_ALERTS",
				Topic:        event.AlertsTopic,
				ConsumerName: "expo-publisher",
				MaxAge:       24 * time.Hour,
				MaxMsgs:      0,
			}
			var err error
			alertStream, err = pkg.NewNATSStream(streamCfg)
			if err != nil {
				return err
			}
			a.logger.Info("NATS stream initialized for persistent alerts")
			alertPublisher = alertStream
		} else {
			var err error
			natsPublisher, err = pkg.NewNATSPublisher(natsURL)
			if err != nil {
				return err
			}
			alertPublisher = natsPublisher
		}

		var err error
		orderSubscriber, err = pkg.NewNATSSubscriber(natsURL)
		if err != nil {
			return err
		}
	}

	var alertSink board.AlertSink
	if alertPublisher != nil {
		alertSink = events.NewAlertPublisher(alertPublisher, a.logger)
	}

	// Display registry: one session per connected screen
	registry := board.NewRegistry(upstream, a.config, alertSink, alertPublisher, a.logger)

	// HTTP surface
	handler := board.NewHandler(registry, a.config, a.logger)
	handler.SetStreamHandler(stream.NewSSEHandler(registry, a.logger))

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      a.logger,
		DisableCORS: false, // displays are browser clients
	})

	lifecycles := []interface{}{registry}

	if orderSubscriber != nil {
		nudger := events.NewOrderItemSubscriber(orderSubscriber, registry, a.logger)
		lifecycles = append(lifecycles, nudger)

		subscriberLifecycle := apt.LifecycleHooks{
			OnStop: func(context.Context) error { return orderSubscriber.Close() },
		}
		lifecycles = append(lifecycles, subscriberLifecycle)
	}
	if alertStream != nil {
		streamLifecycle := apt.LifecycleHooks{
			OnStop: func(context.Context) error { return alertStream.Close() },
		}
		lifecycles = append(lifecycles, streamLifecycle)
	}
	if natsPublisher != nil {
		publisherLifecycle := apt.LifecycleHooks{
			OnStop: func(context.Context) error { return natsPublisher.Close() },
		}
		lifecycles = append(lifecycles, publisherLifecycle)
	}

	options := []apt.Option{
		apt.WithConfig(a.config),
		apt.WithLogger(a.logger),
		apt.WithHTTPMiddleware(stack...),
		apt.WithHTTPServerModules("web.port", handler),
		apt.WithLifecycle(lifecycles...),
		apt.WithHealthChecks(AppName),
	}

	a.micro = apt.NewMicro(options...)
	return nil
}

// Run starts the application
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("Starting %s(%s)", AppName, AppVersion)
	if err := a.micro.Run(ctx); err != nil {
		return err
	}
	a.logger.Infof("%s(%s) stopped", AppName, AppVersion)
	return nil
}
