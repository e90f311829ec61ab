// Package rest exposes the wallet and tip operations over HTTP with echo.
// Every failure is rendered as {"message": ...} with a status derived from
// the sentinel errors in internal/common.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/tipkeeper/internal/logging"
	"github.com/dmitrijs2005/tipkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/tipkeeper/internal/server/models"
	"github.com/labstack/echo/v4"
)

// WalletAPI is the wallet surface the handlers need.
type WalletAPI interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*models.Wallet, error)
	GetWalletAddress(ctx context.Context, userID string) (string, bool, error)
	Balance(ctx context.Context, address string) (string, error)
	AddTrackedAddress(ctx context.Context, address string) error
}

// TipAPI is the tip surface the handlers need.
type TipAPI interface {
	Calculate(ctx context.Context, qty int64) (string, error)
	Send(ctx context.Context, req models.TipTransferRequest) (*models.TipTransferResult, error)
}

type Server struct {
	address         string
	wallets         WalletAPI
	tips            TipAPI
	metrics         *metrics.Registry
	jwtSecret       []byte
	shutdownTimeout time.Duration
	logger          logging.Logger
	echo            *echo.Echo
}

func NewServer(a string, w WalletAPI, t TipAPI, m *metrics.Registry, secretKey string, shutdownTimeout time.Duration, l logging.Logger) *Server {
	s := &Server{
		address:         a,
		wallets:         w,
		tips:            t,
		metrics:         m,
		jwtSecret:       []byte(secretKey),
		shutdownTimeout: shutdownTimeout,
		logger:          l.With("module", "rest_server"),
	}
	s.echo = s.routes()
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.errorHandler
	e.Use(s.observe)

	e.GET("/healthz", s.healthz)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	a := e.Group("/auth", s.authenticate)
	a.GET("/verify", s.verify)

	w := e.Group("/wallet")
	w.POST("/create", s.createWallet, s.authenticate)
	w.GET("/address", s.walletAddress, s.authenticate)
	w.GET("/balance/:address", s.balance)
	w.POST("/notify/add", s.addTrackedAddress, s.authenticate)
	w.POST("/tips/calculate", s.calculateTips)
	w.POST("/tips/send", s.sendTips, s.authenticate)

	return e
}

func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve runs the HTTP server on lis until ctx is done, then drains
// in-flight requests for at most the shutdown timeout.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.echo.Listener = lis

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
