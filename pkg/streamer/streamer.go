package streamer

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/browserdesk/browserdesk/pkg/com"
	"github.com/browserdesk/browserdesk/pkg/config"
	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/browserdesk/browserdesk/pkg/network/httpx"
	"github.com/browserdesk/browserdesk/pkg/rtc"
	"github.com/browserdesk/browserdesk/pkg/session"
)

//go:embed web
var webFS embed.FS

// Streamer is the viewer-facing HTTP service. It serves the demo page,
// the polling websocket transport and the WebRTC signaling endpoint.
type Streamer struct {
	server   *httpx.Server
	registry *session.Registry
	api      *rtc.ApiFactory
	conf     config.Config
	log      *logger.Logger
	viewers  com.Map[com.Uid, *rtc.Peer]
}

func New(conf config.Config, registry *session.Registry, api *rtc.ApiFactory, log *logger.Logger) (*Streamer, error) {
	s := &Streamer{
		registry: registry,
		api:      api,
		conf:     conf,
		log:      log,
		viewers:  com.NewMap[com.Uid, *rtc.Peer](),
	}
	server, err := httpx.NewServer(
		conf.Server.Address,
		func(*httpx.Server) http.Handler {
			pages, _ := fs.Sub(webFS, "web")
			h := httpx.NewServeMux().
				HandleFunc("/ws/", s.handlePolling).
				HandleFunc("/offer", s.handleSignaling).
				Handle("/", http.FileServer(http.FS(pages)))
			return h
		},
		log,
	)
	if err != nil {
		return nil, err
	}
	s.server = server
	return s, nil
}

func (s *Streamer) Run() error {
	s.log.Info().Msgf("starting streamer at %v", s.server.Addr)
	return s.server.Run()
}

func (s *Streamer) Shutdown(ctx context.Context) error {
	s.viewers.ForEach(func(p *rtc.Peer) { p.Disconnect() })
	return s.server.Shutdown(ctx)
}

func (s *Streamer) String() string { return fmt.Sprintf("streamer::%s", s.conf.Server.Address) }
