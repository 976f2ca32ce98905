// Command partner-sim serves a local stand-in for the partner in-store API so
// the console and the service can be exercised without sandbox credentials.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"instore-payment-client/internal/observability"
	"instore-payment-client/internal/partnersim"
)

func main() {
	// 1. Setting up flags
	addr := flag.String("addr", ":8090", "Listen address")
	users := flag.Int("users", 3, "Number of generated operators")
	callbackURL := flag.String("callback", "myapp://payment/callback", "Return deep link base used by /_sim/callback")
	flag.Parse()

	logger := observability.SetupLogger("development")
	sim := partnersim.New(partnersim.Options{Users: partnersim.FakeUsers(*users)}, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, observability.NewLoggerMiddleware(logger))
	// The return deep link the gateway app would open for the latest payment.
	r.Get("/_sim/callback", func(w http.ResponseWriter, _ *http.Request) {
		uri, ok := sim.CallbackURI(*callbackURL)
		if !ok {
			http.Error(w, "no payment has been started yet", http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(uri + "\n"))
	})
	r.Mount("/", sim.Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 2. Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("partner simulator listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("simulator failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down simulator...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("simulator shutdown failed", "error", err)
	}
}
