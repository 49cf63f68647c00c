package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/walletd/walletd/internal/core/application"
	"github.com/walletd/walletd/internal/interfaces"
)

type OperatorServiceOpts struct {
	Address string
	Handle  *application.Handle
}

func (o OperatorServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("missing listening address")
	}
	if o.Handle == nil {
		return fmt.Errorf("missing session handle")
	}
	return nil
}

type operatorService struct {
	opts   OperatorServiceOpts
	server *http.Server
}

func NewOperatorService(opts OperatorServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	return &operatorService{
		opts: opts,
		server: &http.Server{
			Handler:           NewOperatorHandler(opts.Handle),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

func (s *operatorService) Start() error {
	listener, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}

	go func() {
		if err := s.server.Serve(listener); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("operator server stopped unexpectedly")
		}
	}()

	log.Infof("operator interface is listening on %s", listener.Addr())
	return nil
}

func (s *operatorService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("failed to gracefully stop operator server")
	}
	log.Debug("stopped operator interface")
}
