package server

import (
	"context"

	"github.com/browserdesk/browserdesk/pkg/logger"
)

type Server interface {
	Run() error
	Shutdown(ctx context.Context) error
}

type Services []Server

func (svs *Services) Start(log *logger.Logger) {
	for _, s := range *svs {
		s := s
		go func() {
			if err := s.Run(); err != nil {
				log.Error().Err(err).Msgf("failed to start service [%s]", s)
			}
		}()
	}
}

func (svs *Services) Shutdown(ctx context.Context, log *logger.Logger) {
	for _, s := range *svs {
		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msgf("failed to stop [%s]", s)
		}
	}
}
