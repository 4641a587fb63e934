package config

import "time"

type Config struct {
	Browser    Browser
	Capture    Capture
	Monitoring Monitoring
	Server     Server
	Webrtc     Webrtc
	Debug      bool
	Tag        string
}

type Server struct {
	Address string
}

// Browser holds the headless engine bootstrap params.
type Browser struct {
	// page opened in every fresh session
	StartURL string `fig:"start_url"`
	Viewport struct {
		Width  int
		Height int
	}
	// JPEG quality of the captured stills, 1-100
	ScreenshotQuality int `fig:"screenshot_quality"`
}

// Capture configures the polling frame source.
type Capture struct {
	// target frame interval of the polling transport
	Interval time.Duration
	// target frame interval of the media track
	TrackInterval time.Duration `fig:"track_interval"`
}

type Monitoring struct {
	Port             int
	URLPrefix        string `fig:"url_prefix"`
	MetricEnabled    bool   `fig:"metric_enabled"`
	ProfilingEnabled bool   `fig:"profiling_enabled"`
}

func (m *Monitoring) IsEnabled() bool { return m.MetricEnabled || m.ProfilingEnabled }

type Webrtc struct {
	IceServers []IceServer `fig:"ice_servers"`
	IcePorts   struct {
		Min uint16
		Max uint16
	} `fig:"ice_ports"`
	SinglePort int `fig:"single_port"`
	LogLevel   int `fig:"log_level"`
	Video      Video
}

type Video struct {
	// fixed output resolution negotiated for the track
	Width  int
	Height int
	Vpx    struct {
		Bitrate          uint
		KeyframeInterval uint `fig:"keyframe_interval"`
	}
}

type IceServer struct {
	Urls       string `json:"urls,omitempty"`
	Username   string `json:"username,omitempty"`
	Credential string `json:"credential,omitempty"`
}

func (w *Webrtc) HasPortRange() bool  { return w.IcePorts.Min > 0 && w.IcePorts.Max > 0 }
func (w *Webrtc) HasSinglePort() bool { return w.SinglePort > 0 }

// NewConfig loads the app config from a file (or defaults) with
// environment overrides.
func NewConfig(path string) (conf Config, err error) {
	if err = LoadConfig(&conf, path); err != nil {
		return
	}
	conf.fixValues()
	return
}

func (c *Config) fixValues() {
	if c.Browser.Viewport.Width == 0 || c.Browser.Viewport.Height == 0 {
		c.Browser.Viewport.Width, c.Browser.Viewport.Height = 1280, 720
	}
	if c.Browser.ScreenshotQuality == 0 {
		c.Browser.ScreenshotQuality = 80
	}
	if c.Capture.Interval <= 0 {
		// ~15 fps, the polling transport target
		c.Capture.Interval = 66 * time.Millisecond
	}
	if c.Capture.TrackInterval <= 0 {
		// ~33 fps, the media track target
		c.Capture.TrackInterval = 30 * time.Millisecond
	}
	if c.Webrtc.Video.Width == 0 || c.Webrtc.Video.Height == 0 {
		c.Webrtc.Video.Width, c.Webrtc.Video.Height = 1280, 720
	}
	if c.Webrtc.Video.Vpx.Bitrate == 0 {
		c.Webrtc.Video.Vpx.Bitrate = 1200
	}
	if len(c.Webrtc.IceServers) == 0 {
		c.Webrtc.IceServers = []IceServer{{Urls: "stun:stun.l.google.com:19302"}}
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.Tag == "" {
		c.Tag = "desk"
	}
}
