package rtc

import (
	"fmt"
	"sync"

	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/pion/webrtc/v4"
)

// State tracks the signaling progress of one viewer connection.
type State uint8

const (
	NoOffer State = iota
	OfferReceived
	AnswerSent
	Connected
	Closed
)

func (s State) String() string {
	switch s {
	case NoOffer:
		return "no-offer"
	case OfferReceived:
		return "offer-received"
	case AnswerSent:
		return "answer-sent"
	case Connected:
		return "connected"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Peer is the answering side of one WebRTC viewer connection. It owns
// the peer connection and its outbound video track; the signaling
// transport stays with the caller.
type Peer struct {
	api  *ApiFactory
	conn *webrtc.PeerConnection
	log  *logger.Logger

	v *webrtc.TrackLocalStaticSample

	mu    sync.Mutex
	state State

	closeOnce sync.Once
	OnClose   func()
}

func New(log *logger.Logger, api *ApiFactory) *Peer { return &Peer{api: api, log: log} }

// Start allocates the peer connection with its video track and wires
// the ICE callbacks. Trickled local candidates go to onICECandidate.
func (p *Peer) Start(onICECandidate func(*webrtc.ICECandidateInit)) (err error) {
	p.log.Debug().Msg("WebRTC start")
	if p.conn, err = p.api.NewPeer(); err != nil {
		return err
	}
	p.conn.OnICECandidate(p.handleICECandidate(onICECandidate))
	p.conn.OnConnectionStateChange(p.handleConnState())

	// plug in the [video] track (out)
	video, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8}, "video", "browserdesk")
	if err != nil {
		return err
	}
	vs, err := p.conn.AddTrack(video)
	if err != nil {
		return err
	}
	// Read incoming RTCP packets
	go func() {
		rtcpBuf := make([]byte, 1500)
		for {
			if _, _, rtcpErr := vs.Read(rtcpBuf); rtcpErr != nil {
				return
			}
		}
	}()
	p.v = video
	p.log.Debug().Msgf("Added [%s] track", video.Codec().MimeType)
	return nil
}

// Track is the outbound video sink of this connection.
func (p *Peer) Track() *webrtc.TrackLocalStaticSample { return p.v }

// HandleOffer applies the remote offer and produces the local answer.
// An empty or missing local description fails with ErrAnswerGeneration,
// which is fatal for the connection.
func (p *Peer) HandleOffer(offer webrtc.SessionDescription) (Answer, error) {
	p.setState(OfferReceived)
	if err := p.conn.SetRemoteDescription(offer); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}
	answer, err := p.conn.CreateAnswer(nil)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}
	if err = p.conn.SetLocalDescription(answer); err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}
	local := p.conn.LocalDescription()
	if local == nil || local.SDP == "" {
		return Answer{}, ErrAnswerGeneration
	}
	p.setState(AnswerSent)
	p.log.Debug().Msg("Created Answer")
	return Answer{Sdp: local.SDP, Type: "answer"}, nil
}

// AddCandidate feeds one remote trickled candidate into ICE.
func (p *Peer) AddCandidate(candidate webrtc.ICECandidateInit) error {
	if err := p.conn.AddICECandidate(candidate); err != nil {
		return err
	}
	p.log.Debug().Str("candidate", candidate.Candidate).Msg("Ice")
	return nil
}

func (p *Peer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Peer) setState(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	// closed is terminal
	if p.state == Closed {
		return
	}
	p.state = s
}

func (p *Peer) handleICECandidate(callback func(*webrtc.ICECandidateInit)) func(*webrtc.ICECandidate) {
	return func(ice *webrtc.ICECandidate) {
		// ICE gathering finish condition
		if ice == nil {
			p.log.Debug().Msg("ICE gathering was complete probably")
			return
		}
		candidate := ice.ToJSON()
		p.log.Debug().Str("candidate", candidate.Candidate).Msg("ICE")
		callback(&candidate)
	}
}

func (p *Peer) handleConnState() func(webrtc.PeerConnectionState) {
	return func(state webrtc.PeerConnectionState) {
		p.log.Debug().Str(".state", state.String()).Msg("Peer")
		switch state {
		case webrtc.PeerConnectionStateConnected:
			p.setState(Connected)
			p.log.Info().Msg("Connected")
		case webrtc.PeerConnectionStateFailed:
			p.log.Error().Msgf("WebRTC connection fail! connection: %v, ice: %v, gathering: %v, signalling: %v",
				p.conn.ConnectionState(), p.conn.ICEConnectionState(), p.conn.ICEGatheringState(),
				p.conn.SignalingState())
			p.Disconnect()
		case webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			p.Disconnect()
		}
	}
}

// Disconnect tears the connection down exactly once.
func (p *Peer) Disconnect() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.state = Closed
		p.mu.Unlock()
		if p.conn != nil && p.conn.ConnectionState() < webrtc.PeerConnectionStateDisconnected {
			// ignore this due to DTLS fatal: conn is closed
			_ = p.conn.Close()
		}
		if p.OnClose != nil {
			p.OnClose()
		}
		p.log.Debug().Msg("WebRTC stop")
	})
}
