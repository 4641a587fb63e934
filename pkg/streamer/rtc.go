package streamer

import (
	"context"
	"net/http"
	"sync"

	"github.com/browserdesk/browserdesk/pkg/capture"
	"github.com/browserdesk/browserdesk/pkg/com"
	"github.com/browserdesk/browserdesk/pkg/encoder/vpx"
	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/browserdesk/browserdesk/pkg/media"
	"github.com/browserdesk/browserdesk/pkg/network/websocket"
	"github.com/browserdesk/browserdesk/pkg/rtc"
	"github.com/browserdesk/browserdesk/pkg/session"
	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v4"
)

// handleSignaling serves one WebRTC viewer over /offer. The socket
// carries signaling only: one offer, then trickled candidates. Frames
// go out on the negotiated video track.
func (s *Streamer) handleSignaling(w http.ResponseWriter, r *http.Request) {
	uid := com.NewUid()
	log := s.log.Extend(s.log.With().Str("sid", uid.Short()))
	ws, err := websocket.NewServer(w, r, log)
	if err != nil {
		log.Error().Err(err).Msg("couldn't init the signaling socket")
		return
	}
	sess, err := s.registry.GetOrCreate(context.Background(), uid.String())
	if err != nil {
		log.Error().Err(err).Msg("session provisioning failed")
		ws.Close()
		return
	}
	v := s.conf.Webrtc.Video
	adapter, err := media.NewAdapter(v.Width, v.Height, s.conf.Capture.TrackInterval,
		vpx.Options{Bitrate: v.Vpx.Bitrate, KeyframeInterval: v.Vpx.KeyframeInterval}, log)
	if err != nil {
		log.Error().Err(err).Msg("video pipeline init failed")
		s.registry.Destroy(uid.String())
		ws.Close()
		return
	}
	peer := rtc.New(log, s.api)
	if err := peer.Start(func(c *webrtc.ICECandidateInit) {
		if msg, err := json.Marshal(rtc.Candidate{Candidate: *c}); err == nil {
			ws.Write(msg)
		}
	}); err != nil {
		log.Error().Err(err).Msg("peer init failed")
		adapter.Stop()
		s.registry.Destroy(uid.String())
		ws.Close()
		return
	}
	peer.OnClose = ws.Close
	s.viewers.Put(uid, peer)
	activeConnections.WithLabelValues("rtc").Inc()

	ws.OnMessage = func(data []byte) {
		// the first message has to be the offer, everything after
		// is candidates
		if peer.State() == rtc.NoOffer {
			offer, err := rtc.ParseOffer(data)
			if err != nil {
				log.Error().Err(err).Msg("connection dropped")
				ws.Close()
				return
			}
			answer, err := peer.HandleOffer(offer)
			if err != nil {
				log.Error().Err(err).Msg("connection dropped")
				ws.Close()
				return
			}
			msg, err := json.Marshal(answer)
			if err != nil {
				log.Error().Err(err).Msg("connection dropped")
				ws.Close()
				return
			}
			ws.Write(msg)
			s.startStream(sess, adapter, peer, log)
			return
		}
		cand, err := rtc.ParseCandidate(data)
		if err != nil {
			log.Debug().Err(err).Msg("signaling message discarded")
			return
		}
		if err := peer.AddCandidate(cand); err != nil {
			log.Warn().Err(err).Msg("candidate rejected")
		}
	}
	ws.Listen()
	go func() {
		<-ws.Done
		peer.Disconnect()
		// the frame loops stop inside Destroy, the codec is safe
		// to free after that
		s.registry.Destroy(uid.String())
		adapter.Stop()
		s.viewers.RemoveByKey(uid)
		activeConnections.WithLabelValues("rtc").Dec()
		log.Debug().Msg("viewer disconnected")
	}()
}

// startStream wires capture into the media track: one loop polls the
// tab and feeds changed frames to the adapter, another paces encoded
// samples onto the track.
func (s *Streamer) startStream(sess *session.Session, adapter *media.Adapter, peer *rtc.Peer, log *logger.Logger) {
	src := capture.NewSource(sess, s.conf.Capture.Interval, log)
	src.OnError = func(error) {
		captureErrors.Inc()
		adapter.MarkFailure()
	}
	loopCtx, cancelLoop := context.WithCancel(context.Background())
	done := make(chan struct{})
	if !sess.AttachLoop(cancelLoop, done) {
		// the session was destroyed mid-negotiation, the socket
		// teardown handles the rest
		cancelLoop()
		log.Warn().Msg("session is gone, stream not started")
		return
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		src.Run(loopCtx, func(f capture.Frame) bool {
			adapter.Ingest(f.Data)
			framesSent.WithLabelValues("rtc").Inc()
			return true
		})
	}()
	go func() {
		defer wg.Done()
		adapter.Run(loopCtx, peer.Track())
	}()
	go func() {
		wg.Wait()
		close(done)
	}()
}
