// Package api exposes the register engine over HTTP.
//
// Every endpoint is stateless: the request carries the whole device (or
// register) and the response is computed from it alone. Errors are returned
// as {"issues":[{"kind","path","message"}]} with status 400 when the payload
// can't be read and 422 when it is read but invalid.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"bitsmith/log"
	"bitsmith/memmap"
)

// MaxBodySize bounds the size of a request payload.
const MaxBodySize = 8 << 20

type Server struct {
	layout memmap.Options
	mux    *http.ServeMux
}

// New returns a server whose /layout endpoint defaults to opts.
func New(opts memmap.Options) *Server {
	s := &Server{layout: opts, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /api/v1/validate", s.handleValidate)
	s.mux.HandleFunc("POST /api/v1/rows", s.handleRows)
	s.mux.HandleFunc("POST /api/v1/layout", s.handleLayout)
	s.mux.HandleFunc("POST /api/v1/bits", s.handleBits)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)

	log.ModAPI.DebugZ("request").
		String("method", r.Method).
		String("path", r.URL.Path).
		Int("status", rec.status).
		String("took", time.Since(start).String()).
		End()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Run serves on hostport until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, hostport string) error {
	ln, err := net.Listen("tcp", hostport)
	if err != nil {
		return errors.Wrap(err, "listen")
	}

	server := http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		done <- server.Shutdown(shutCtx)
	}()

	log.ModAPI.InfoZ("server listening").String("addr", ln.Addr().String()).End()
	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve")
	}
	return <-done
}
