package streamer

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/browserdesk/browserdesk/pkg/capture"
	"github.com/browserdesk/browserdesk/pkg/input"
	"github.com/browserdesk/browserdesk/pkg/network/websocket"
	"github.com/goccy/go-json"
)

type screenshotMsg struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func screenshotMessage(jpeg []byte) ([]byte, error) {
	return json.Marshal(screenshotMsg{
		Type: "screenshot",
		Data: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg),
	})
}

// handlePolling serves one viewer over /ws/{id}: inbound input events,
// outbound JPEG frames on change. The session is destroyed when the
// socket goes away, however it went away.
func (s *Streamer) handlePolling(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/ws/"), "/")
	if id == "" {
		http.Error(w, "session id is required", http.StatusBadRequest)
		return
	}
	log := s.log.Extend(s.log.With().Str("sid", id))
	ws, err := websocket.NewServer(w, r, log)
	if err != nil {
		log.Error().Err(err).Msg("couldn't init the viewer socket")
		return
	}
	// the session must outlive the request context, the handler
	// returns while the pumps are still running
	sess, err := s.registry.GetOrCreate(context.Background(), id)
	if err != nil {
		log.Error().Err(err).Msg("session provisioning failed")
		ws.Close()
		return
	}
	activeConnections.WithLabelValues("ws").Inc()

	tr := input.NewTranslator(sess, log)
	tr.OnError = func(error) { inputErrors.Inc() }
	ws.OnMessage = func(data []byte) {
		if err := tr.HandleRaw(context.Background(), data); err != nil {
			inputErrors.Inc()
			log.Warn().Err(err).Msg("input event dropped")
		}
	}

	src := capture.NewSource(sess, s.conf.Capture.Interval, log)
	src.OnError = func(error) { captureErrors.Inc() }
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	done := make(chan struct{})
	if !sess.AttachLoop(cancelLoop, done) {
		// the session was destroyed between the lookup and now
		cancelLoop()
		activeConnections.WithLabelValues("ws").Dec()
		log.Warn().Msg("session is gone")
		ws.Close()
		return
	}
	go func() {
		defer close(done)
		src.Run(loopCtx, func(f capture.Frame) bool {
			msg, err := screenshotMessage(f.Data)
			if err != nil {
				log.Error().Err(err).Msg("frame encode failed")
				return true
			}
			ws.Write(msg)
			framesSent.WithLabelValues("ws").Inc()
			return true
		})
	}()

	ws.Listen()
	go func() {
		<-ws.Done
		s.registry.Destroy(id)
		activeConnections.WithLabelValues("ws").Dec()
		log.Debug().Msg("viewer disconnected")
	}()
}
