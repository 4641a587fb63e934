package httpx

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/browserdesk/browserdesk/pkg/logger"
)

// Server is a plain HTTP server with an attached listener and
// a graceful shutdown.
type Server struct {
	http.Server

	listener net.Listener
	log      *logger.Logger
}

type Mux struct{ *http.ServeMux }

// NewServeMux allocates and returns a new Mux.
func NewServeMux() *Mux { return &Mux{ServeMux: http.NewServeMux()} }

func (m *Mux) Handle(pattern string, handler http.Handler) *Mux {
	m.ServeMux.Handle(pattern, handler)
	return m
}

func (m *Mux) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) *Mux {
	m.ServeMux.HandleFunc(pattern, handler)
	return m
}

// NewServer binds the address and wires the handler.
// The handler factory receives the server so routes can know the final address.
func NewServer(address string, handler func(*Server) http.Handler, log *logger.Logger) (*Server, error) {
	server := &Server{
		Server: http.Server{
			Addr:        address,
			IdleTimeout: 120 * time.Second,
			// streaming endpoints hold connections open, keep these long
			ReadTimeout:  500 * time.Second,
			WriteTimeout: 500 * time.Second,
		},
		log: log,
	}
	server.Handler = handler(server)

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	server.listener = listener
	server.Addr = listener.Addr().String()
	log.Info().Msgf("httpx %v (%v)", server.Addr, address)
	return server, nil
}

func (s *Server) Run() error {
	s.log.Debug().Msgf("starting http server on %s", s.Addr)
	if err := s.Serve(s.listener); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error { return s.Server.Shutdown(ctx) }
