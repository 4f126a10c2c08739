package milter

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/d--j/go-milter"
	"github.com/zpam/phish-filter/pkg/config"
	"github.com/zpam/phish-filter/pkg/tracker"
	"go.uber.org/zap"
)

// Server represents the phish-filter milter server
type Server struct {
	config    *config.Config
	logger    *zap.Logger
	senders   *tracker.SenderTracker
	milterSrv *milter.Server
}

// NewServer creates a milter server that classifies messages with model
func NewServer(cfg *config.Config, model Classifier, logger *zap.Logger) (*Server, error) {
	if !cfg.Milter.Enabled {
		return nil, fmt.Errorf("milter is not enabled in configuration")
	}
	if model == nil {
		return nil, fmt.Errorf("milter requires a trained model")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var senders *tracker.SenderTracker
	if cfg.Milter.SenderWindowMinutes > 0 {
		senders = tracker.NewSenderTracker(
			time.Duration(cfg.Milter.SenderWindowMinutes)*time.Minute,
			cfg.Milter.SenderCacheSize,
		)
	}

	var milterOpts []milter.Option

	// Only headers and body are needed to classify
	milterOpts = append(milterOpts, milter.WithProtocol(milter.OptNoHelo|milter.OptNoData))

	if cfg.Milter.AddHeaders {
		milterOpts = append(milterOpts, milter.WithAction(milter.OptAddHeader))
	}

	if cfg.Milter.ReadTimeoutMs > 0 {
		milterOpts = append(milterOpts, milter.WithReadTimeout(
			time.Duration(cfg.Milter.ReadTimeoutMs)*time.Millisecond))
	}
	if cfg.Milter.WriteTimeoutMs > 0 {
		milterOpts = append(milterOpts, milter.WithWriteTimeout(
			time.Duration(cfg.Milter.WriteTimeoutMs)*time.Millisecond))
	}

	milterOpts = append(milterOpts, milter.WithMilter(func() milter.Milter {
		return NewHandler(cfg, model, senders, logger)
	}))

	return &Server{
		config:    cfg,
		logger:    logger,
		senders:   senders,
		milterSrv: milter.NewServer(milterOpts...),
	}, nil
}

// Serve accepts connections on listener until ctx is cancelled
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.milterSrv.Serve(listener)
	}()

	s.logger.Info("milter listening", zap.String("addr", listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(s.config.Milter.GracefulShutdownTimeout)*time.Millisecond,
		)
		defer cancel()

		if err := s.milterSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown milter server: %w", err)
		}
		s.logger.Info("milter stopped", zap.Uint64("sessions", s.milterSrv.MilterCount()))
		return ctx.Err()

	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("milter server error: %w", err)
		}
		return nil
	}
}

// Close closes the milter server
func (s *Server) Close() error {
	return s.milterSrv.Close()
}

// Stats returns server statistics
func (s *Server) Stats() ServerStats {
	stats := ServerStats{
		MilterCount: s.milterSrv.MilterCount(),
	}
	if s.senders != nil {
		stats.TrackedSenders = s.senders.Len()
	}
	return stats
}

// ServerStats contains server statistics
type ServerStats struct {
	MilterCount    uint64 // Total number of milter instances created
	TrackedSenders int
}
