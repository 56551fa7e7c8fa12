package server

import (
	"context"
	"net"
	"net/http"

	"github.com/rakunlabs/ada"

	"github.com/woped/model-transformer/internal/config"

	mcors "github.com/rakunlabs/ada/middleware/cors"
	mlog "github.com/rakunlabs/ada/middleware/log"
	mrecover "github.com/rakunlabs/ada/middleware/recover"
	mrequestid "github.com/rakunlabs/ada/middleware/requestid"
	mserver "github.com/rakunlabs/ada/middleware/server"
	mtelemetry "github.com/rakunlabs/ada/middleware/telemetry"
)

type Server struct {
	config config.Server

	server *ada.Server

	// tokenChecker is nil when the external token check is disabled.
	tokenChecker *TokenChecker
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	mux := ada.New()
	mux.Use(
		mrecover.Middleware(),
		mserver.Middleware(config.Service),
		mcors.Middleware(),
		mrequestid.Middleware(),
		mlog.Middleware(),
		mtelemetry.Middleware(),
	)

	s := &Server{
		config: cfg.Server,
		server: mux,
	}

	if cfg.TokenCheck.Enabled {
		checker, err := NewTokenChecker(cfg.TokenCheck)
		if err != nil {
			return nil, err
		}
		s.tokenChecker = checker
	}

	baseGroup := mux.Group(cfg.Server.BasePath)

	baseGroup.POST("/transform", s.Transform)
	baseGroup.GET("/health", s.Health)
	baseGroup.GET("/metrics", s.Metrics)

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	return s.server.StartWithContext(ctx, net.JoinHostPort(s.config.Host, s.config.Port))
}

// Health reports liveness.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	httpResponseJSON(w, map[string]string{
		"status":  "healthy",
		"service": config.Service,
	}, http.StatusOK)
}
