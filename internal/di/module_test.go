package di

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.uber.org/fx"

	"github.com/soletrea/atelier/internal/adapter/payment"
	"github.com/soletrea/atelier/internal/adapter/stream"
	"github.com/soletrea/atelier/internal/app"
	"github.com/soletrea/atelier/internal/config"
	"github.com/soletrea/atelier/internal/domain/repository"
	"github.com/soletrea/atelier/internal/ratelimit"
	"github.com/soletrea/atelier/internal/storage/postgres"
	"github.com/soletrea/atelier/internal/test"
)

func TestModuleComposesGraphWithReplacements(t *testing.T) {
	cfg := &config.Config{
		RunAddress:         ":0",
		DatabaseURI:        "postgres://stub",
		PaymentMode:        config.PaymentModeSimulated,
		SweepSecret:        "secret",
		ReservationTTL:     time.Minute,
		SweepInterval:      time.Millisecond,
		OutboxPollInterval: time.Millisecond,
		WorkerPoolSize:     1,
		MaxSweepBatch:      1,
		MaxOutboxBatch:     1,
		ShutdownTimeout:    time.Millisecond,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	productRepo := test.NewProductRepositoryStub()
	orderRepo := test.NewOrderRepositoryStub()
	outboxRepo := &test.OutboxRepositoryStub{}
	limiter := &test.LimiterStub{}
	paymentClient := &test.PaymentClientStub{}
	publisher := &test.PublisherStub{}

	var facade *app.MarketplaceFacade
	fxApp := fx.New(
		fx.NopLogger,
		fx.Supply(context.Background()),
		Module(
			fx.Replace(cfg),
			fx.Replace(logger),
			fx.Replace(&postgres.Storage{}),
			fx.Replace(repository.ProductRepository(productRepo)),
			fx.Replace(repository.OrderRepository(orderRepo)),
			fx.Replace(repository.OutboxRepository(outboxRepo)),
			fx.Replace(ratelimit.Limiter(limiter)),
			fx.Replace(payment.Client(paymentClient)),
			fx.Replace(stream.Publisher(publisher)),
		),
		fx.Populate(&facade),
	)

	if err := fxApp.Err(); err != nil {
		t.Fatalf("fx app returned error: %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(context.Background()) })
	if facade == nil {
		t.Fatal("expected marketplace facade instance")
	}
}
