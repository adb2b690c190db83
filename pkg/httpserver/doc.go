// Package httpserver provides a lightweight wrapper around net/http that adds
// graceful shutdown, configurable server timeouts, and structured logging via
// slog.
//
// The core type is Server:
//
//   - Graceful Shutdown – Run blocks until the context is cancelled or an
//     interrupt/TERM signal is received and then shuts the server down using
//     http.Server.Shutdown with a configurable deadline.
//
//   - Functional Options – Construction is done through New or NewFromConfig
//     together with Option helpers such as WithAddr, WithReadTimeout and
//     WithLogger.
//
//   - Hooks – WithStartHook and WithStopHook let callers execute side-effects
//     around the server life-cycle.
//
// # Usage
//
//	import (
//		"context"
//		"log/slog"
//		"time"
//
//		"github.com/go-chi/chi/v5"
//		"github.com/recruitkit/billing/pkg/httpserver"
//	)
//
//	func main() {
//		r := chi.NewRouter()
//
//		srv := httpserver.New(
//			httpserver.WithAddr(":8080"),
//			httpserver.WithShutdownTimeout(10*time.Second),
//		)
//
//		if err := srv.Run(context.Background(), r); err != nil {
//			slog.Error("server stopped", "err", err)
//		}
//	}
//
// # Errors
//
// Run wraps all listen errors with ErrStart, while Shutdown wraps underlying
// shutdown errors with ErrShutdown. Use errors.Is to distinguish them.
package httpserver
