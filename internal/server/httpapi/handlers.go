package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/common"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bienvenue"})
}

// handleRegister creates an account. An already-used email answers 400
// without revealing anything beyond what the caller supplied.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	_, err := s.svc.Register(r.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrEmailAlreadyExists):
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "email already registered"})
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, "email and password required")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.logger.Info(r.Context(), "user registered", "email", email)
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "message": "user created"})
}

// handleLogin verifies credentials and opens a session. Unknown account and
// wrong password answer identically.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	user, err := s.svc.VerifyCredentials(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	sessionID, err := s.svc.CreateSession(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := map[string]string{"email": email, "message": "logged in"}
	if s.authType == "bearer" {
		access, err := s.svc.IssueAccessToken(user)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		resp["access_token"] = access
	}

	s.logger.Info(r.Context(), "session created", "email", email)
	writeJSON(w, http.StatusOK, resp)
}

// handleLogout closes the session carried by the cookie and sends the
// caller back to the index.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	user, err := s.svc.ResolveSession(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, common.ErrorInternal) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	if err := s.svc.DestroySession(r.Context(), user.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:   s.cookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"email": user.Email})
}

// handleResetRequest issues a reset token. The token is returned in the
// response body; delivering it out of band is the operator's concern.
func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")

	token, err := s.svc.RequestPasswordReset(r.Context(), email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			writeError(w, http.StatusForbidden, "Forbidden")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info(r.Context(), "reset token issued", "email", email)
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "reset_token": token})
}

// handleResetConsume updates the password for the account owning the token.
func (s *Server) handleResetConsume(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	token := r.PostFormValue("reset_token")
	newPassword := r.PostFormValue("new_password")

	err := s.svc.ConsumePasswordReset(r.Context(), token, newPassword)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidResetToken), errors.Is(err, common.ErrResetTokenExpired):
			writeError(w, http.StatusForbidden, "Forbidden")
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, "new password required")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	s.logger.Info(r.Context(), "password updated", "email", email)
	writeJSON(w, http.StatusOK, map[string]string{"email": email, "message": "Password updated"})
}
