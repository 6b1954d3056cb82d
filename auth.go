package main

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

const authCookieName = "grimbox-auth"

// AuthGate is a view-mode switch for the script-editing pages, not a
// security boundary: one configured credential pair, a cookie flag, and no
// endpoint actually protected by it. Only the bcrypt hash of the password is
// kept in memory after startup.
type AuthGate struct {
	user string
	hash []byte
}

func newAuthGate(cfg *Config) (*AuthGate, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthGate{user: cfg.adminUser, hash: hash}, nil
}

func (a *AuthGate) login(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.user)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
}

func isAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(authCookieName)
	return err == nil && c.Value == "admin"
}

func registerAuthRoutes(cfg *Config, mux *httprouter.Router, gate *AuthGate) {
	mux.POST(cfg.prefix+"/api/login", serveLogin(cfg, gate))
	mux.POST(cfg.prefix+"/api/logout", serveLogout(cfg))
	mux.GET(cfg.prefix+"/api/session", serveSession(cfg))
}

func serveLogin(cfg *Config, gate *AuthGate) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if !gate.login(in.Username, in.Password) {
			logf(cfg, "AUTH: Failed login for %q from %s", in.Username, realIP(r))
			writeJSONError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    "admin",
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

		logf(cfg, "AUTH: Login for %q from %s", in.Username, realIP(r))
	}
}

func serveLogout(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)

		http.SetCookie(w, &http.Cookie{
			Name:     authCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

func serveSession(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		securityHeaders(cfg, w)
		writeJSON(w, http.StatusOK, map[string]bool{"authenticated": isAuthenticated(r)})
	}
}
