package rtc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pion/webrtc/v4"
)

var (
	ErrMalformedOffer     = errors.New("malformed offer")
	ErrMalformedCandidate = errors.New("malformed candidate")
	ErrAnswerGeneration   = errors.New("couldn't generate an answer")
)

var jsonNull = []byte("null")

// ParseOffer validates an inbound signaling message as an SDP offer.
// The message must be a JSON object carrying a non-null sdp string and
// type "offer"; anything else fails with ErrMalformedOffer.
func ParseOffer(data []byte) (webrtc.SessionDescription, error) {
	var m struct {
		Sdp  json.RawMessage `json:"sdp"`
		Type json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: %v", ErrMalformedOffer, err)
	}
	if m.Sdp == nil || bytes.Equal(m.Sdp, jsonNull) {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: no sdp", ErrMalformedOffer)
	}
	var sdp, typ string
	if err := json.Unmarshal(m.Sdp, &sdp); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: bad sdp", ErrMalformedOffer)
	}
	if err := json.Unmarshal(m.Type, &typ); err != nil || typ != "offer" {
		return webrtc.SessionDescription{}, fmt.Errorf("%w: bad type", ErrMalformedOffer)
	}
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdp}, nil
}

// ParseCandidate extracts a trickled ICE candidate from a signaling
// message. Messages without a proper candidate object are rejected with
// ErrMalformedCandidate and should be discarded by the caller.
func ParseCandidate(data []byte) (webrtc.ICECandidateInit, error) {
	var m struct {
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: %v", ErrMalformedCandidate, err)
	}
	if m.Candidate == nil || bytes.Equal(m.Candidate, jsonNull) {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: no candidate", ErrMalformedCandidate)
	}
	var c struct {
		Candidate     *string `json:"candidate"`
		SdpMid        *string `json:"sdpMid"`
		SdpMLineIndex *uint16 `json:"sdpMLineIndex"`
	}
	if err := json.Unmarshal(m.Candidate, &c); err != nil {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: not an object", ErrMalformedCandidate)
	}
	if c.Candidate == nil || c.SdpMid == nil {
		return webrtc.ICECandidateInit{}, fmt.Errorf("%w: missing fields", ErrMalformedCandidate)
	}
	return webrtc.ICECandidateInit{
		Candidate:     *c.Candidate,
		SDPMid:        c.SdpMid,
		SDPMLineIndex: c.SdpMLineIndex,
	}, nil
}

// Answer is the outbound signaling message carrying the local SDP.
type Answer struct {
	Sdp  string `json:"sdp"`
	Type string `json:"type"`
}

// Candidate is the outbound signaling message carrying a local ICE
// candidate in the browser's RTCIceCandidateInit shape.
type Candidate struct {
	Candidate webrtc.ICECandidateInit `json:"candidate"`
}
