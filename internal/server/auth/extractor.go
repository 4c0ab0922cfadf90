package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Service is the slice of the auth service the extractors need. Extractors
// never touch the account store directly.
type Service interface {
	VerifyCredentials(ctx context.Context, email, password string) (*models.User, error)
	ResolveSession(ctx context.Context, sessionID string) (*models.User, error)
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// Extractor resolves the user a request was made by. Variants are selected
// by configuration; handlers stay agnostic to which one supplied the
// identity. A request without usable credentials yields
// common.ErrorUnauthorized.
type Extractor interface {
	FromRequest(ctx context.Context, r *http.Request) (*models.User, error)
}

// New returns the Extractor for the configured auth type.
func New(authType string, svc Service, cookieName string, secretKey []byte) (Extractor, error) {
	switch authType {
	case "basic":
		return &BasicExtractor{svc: svc}, nil
	case "session":
		return &SessionExtractor{svc: svc, cookieName: cookieName}, nil
	case "bearer":
		return &BearerExtractor{svc: svc, secretKey: secretKey}, nil
	default:
		return nil, fmt.Errorf("unknown auth type %q", authType)
	}
}

// BasicExtractor authenticates every request from the Authorization: Basic
// header (email:password).
type BasicExtractor struct {
	svc Service
}

func (e *BasicExtractor) FromRequest(ctx context.Context, r *http.Request) (*models.User, error) {
	email, password, ok := r.BasicAuth()
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return e.svc.VerifyCredentials(ctx, email, password)
}

// SessionExtractor resolves the opaque session token carried in a cookie.
// The cookie value is passed to the service verbatim, never parsed.
type SessionExtractor struct {
	svc        Service
	cookieName string
}

func (e *SessionExtractor) FromRequest(ctx context.Context, r *http.Request) (*models.User, error) {
	cookie, err := r.Cookie(e.cookieName)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}
	user, err := e.svc.ResolveSession(ctx, cookie.Value)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// BearerExtractor validates a signed bearer token from the Authorization
// header and loads its owner.
type BearerExtractor struct {
	svc       Service
	secretKey []byte
}

func (e *BearerExtractor) FromRequest(ctx context.Context, r *http.Request) (*models.User, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return nil, common.ErrorUnauthorized
	}

	userID, err := GetUserIDFromToken(tokenString, e.secretKey)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	user, err := e.svc.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			return nil, err
		}
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}
