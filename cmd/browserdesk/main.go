package main

import (
	"context"
	goflag "flag"
	"time"

	"github.com/browserdesk/browserdesk/pkg/browser"
	"github.com/browserdesk/browserdesk/pkg/config"
	"github.com/browserdesk/browserdesk/pkg/logger"
	"github.com/browserdesk/browserdesk/pkg/monitoring"
	"github.com/browserdesk/browserdesk/pkg/os"
	"github.com/browserdesk/browserdesk/pkg/rtc"
	"github.com/browserdesk/browserdesk/pkg/server"
	"github.com/browserdesk/browserdesk/pkg/session"
	"github.com/browserdesk/browserdesk/pkg/streamer"
	flag "github.com/spf13/pflag"
)

var Version = "?"

func main() {
	var confPath string
	flag.StringVarP(&confPath, "conf", "c", "", "custom config file or directory")
	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	flag.Parse()

	conf, err := config.NewConfig(confPath)
	if err != nil {
		logger.NewConsole(false, "desk").Fatal().Err(err).Msg("config load failed")
	}
	log := logger.NewConsole(conf.Debug, conf.Tag)
	log.Info().Msgf("version %s", Version)
	log.Debug().Msgf("config: %+v", conf)

	launcher, err := browser.NewLauncher(conf.Browser, log)
	if err != nil {
		log.Fatal().Err(err).Msg("browser engine start failed")
	}
	registry := session.NewRegistry(launcher.NewTab, log)

	api, err := rtc.NewApiFactory(conf.Webrtc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("webrtc init failed")
	}
	stream, err := streamer.New(conf, registry, api, log)
	if err != nil {
		log.Fatal().Err(err).Msg("streamer init failed")
	}

	services := server.Services{stream}
	if conf.Monitoring.IsEnabled() {
		mon, err := monitoring.New(conf.Monitoring, log)
		if err != nil {
			log.Fatal().Err(err).Msg("monitoring init failed")
		}
		services = append(services, mon)
	}
	services.Start(log)

	<-os.ExpectTermination()
	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	services.Shutdown(ctx, log)
	registry.Close()
	if err := launcher.Close(); err != nil {
		log.Error().Err(err).Msg("browser engine stop failed")
	}
}
