package webhook

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// Middleware logs every request and turns a panic into a 500 so a bad
// request can never take the bot down.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			if p := recover(); p != nil {
				log.Error().
					Interface("panic", p).
					Str("uri", r.URL.String()).
					Str("stack", string(debug.Stack())).
					Msg("Handler panicked")
				if rec.status == 0 {
					writeJSON(rec, http.StatusInternalServerError, errorResponse{Error: internalErrorMessage})
				}
			}
			requestLog(rec.status, r)
		}()
		next.ServeHTTP(rec, r)
	})
}

func requestLog(code int, r *http.Request) {
	log.Info().Str("method", r.Method).Str("code", strconv.Itoa(code)).Str("uri", r.URL.String()).Msg("")
}

// Server runs the webhook listener.
type Server struct {
	srv *http.Server
}

// NewServer listens on every interface at port.
func NewServer(port int, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           Middleware(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *Server) Addr() string { return s.srv.Addr }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("Webhook server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down the webhook server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
