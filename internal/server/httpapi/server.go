// Package httpapi is the HTTP transport for the auth service. It translates
// requests into service operations and typed results into status codes and
// cookies; no business rule lives here.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// AuthService is the slice of the auth service the transport consumes.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	CreateSession(ctx context.Context, email string) (string, error)
	ResolveSession(ctx context.Context, sessionID string) (*models.User, error)
	DestroySession(ctx context.Context, userID string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ConsumePasswordReset(ctx context.Context, resetToken, newPassword string) error
	IssueAccessToken(user *models.User) (string, error)
}

type Server struct {
	address    string
	svc        AuthService
	extractor  auth.Extractor
	logger     logging.Logger
	cookieName string
	authType   string
}

func NewServer(cfg *config.Config, svc AuthService, extractor auth.Extractor, l logging.Logger) *Server {
	return &Server{
		address:    cfg.EndpointAddr,
		svc:        svc,
		extractor:  extractor,
		logger:     l.With("module", "httpapi"),
		cookieName: cfg.SessionCookieName,
		authType:   cfg.AuthType,
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
