package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nearbook/nearbook/libs/config"
	"github.com/nearbook/nearbook/libs/db"
	"github.com/nearbook/nearbook/libs/httpx"
	"github.com/nearbook/nearbook/libs/kafkax"
	otelx "github.com/nearbook/nearbook/libs/otel"
	"github.com/nearbook/nearbook/libs/runtime"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/handlers"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/outbox"
	"github.com/nearbook/nearbook/services/scheduling-service/internal/storage"
	"github.com/nearbook/nearbook/services/scheduling-service/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	config.LoadDotenv()

	service := config.String("SERVICE_NAME", "scheduling-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
		logger.Error("migrations failed", "err", err)
		panic(err)
	}

	scheduleRepo := storage.NewScheduleRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	ownerHandler := handlers.NewOwnerHandler(scheduleRepo, bookingRepo, outboxRepo, logger)
	publicHandler := handlers.NewPublicHandler(scheduleRepo, bookingRepo, outboxRepo, logger)

	// The public endpoints take anonymous internet traffic and get a rate
	// limit; owner endpoints sit behind the auth layer and do not.
	publicLimit := publicRateLimit(logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/hours", ownerHandler.Hours)
	mux.HandleFunc("/api/v1/slot-templates", ownerHandler.SlotTemplates)
	mux.HandleFunc("/api/v1/day", ownerHandler.Day)
	mux.HandleFunc("/api/v1/appointments", ownerHandler.Appointments)
	mux.HandleFunc("/api/v1/appointments/transition", ownerHandler.Transition)
	mux.Handle("/api/v1/public/slots", publicLimit(http.HandlerFunc(publicHandler.Slots)))
	mux.Handle("/api/v1/public/book", publicLimit(http.HandlerFunc(publicHandler.Book)))
	mux.Handle("/api/v1/public/appointments/cancel", publicLimit(http.HandlerFunc(publicHandler.Cancel)))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1<<20),
		httpx.WithCORS(splitCSV(config.String("CORS_ALLOWED_ORIGINS", ""))),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "scheduling")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// publicRateLimit prefers a Redis-backed limiter so all replicas share one
// window; without REDIS_ADDR a per-process limiter is used.
func publicRateLimit(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("PUBLIC_RATE_LIMIT", 60)
	window := time.Duration(config.Int("PUBLIC_RATE_WINDOW_SECONDS", 60)) * time.Second

	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		return httpx.NewRedisRateLimiter(rdb, limit, window, "scheduling:public").
			Middleware(logger, true)
	}
	return httpx.NewRateLimiter(limit, window).Middleware()
}

func splitCSV(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
