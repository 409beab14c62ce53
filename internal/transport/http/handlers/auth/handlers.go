// Package auth implements the Azure AD sign-in flow. The authorization-code
// exchange yields an id token for who the user is and an access token that is
// used exactly once, during redirect handling, to resolve the manager chain
// and direct reports from the directory. Only the resulting snapshot is kept.
package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	sessionauth "dialogue/internal/auth"
	"dialogue/internal/directory"
	"dialogue/internal/domain/audit"
	"dialogue/internal/domain/identity"
	"dialogue/internal/transport/http/api"
	"dialogue/internal/transport/http/middleware"
)

const (
	stateCookie = "dialogue_oauth_state"
	nextCookie  = "dialogue_oauth_next"
)

type Handlers struct {
	OAuth         *oauth2.Config
	Sessions      identity.StoreAPI
	Directory     *directory.Client
	Audit         *audit.Service
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool
}

func New(oauthCfg *oauth2.Config, sessions identity.StoreAPI, dir *directory.Client, auditSvc *audit.Service, secret string, ttl time.Duration, secure bool) *Handlers {
	return &Handlers{
		OAuth:         oauthCfg,
		Sessions:      sessions,
		Directory:     dir,
		Audit:         auditSvc,
		SessionSecret: secret,
		SessionTTL:    ttl,
		SecureCookies: secure,
	}
}

// HandleLogin starts the authorization-code flow. A random state value is
// pinned in a short-lived cookie and checked on the way back.
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if next := r.URL.Query().Get("next"); next != "" && strings.HasPrefix(next, "/") {
		http.SetCookie(w, &http.Cookie{
			Name:     nextCookie,
			Value:    next,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   h.SecureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, h.OAuth.AuthCodeURL(state), http.StatusFound)
}

// HandleRedirect completes the flow: verify state, exchange the code, read
// identity claims from the id token, resolve the manager chain, and persist
// the session snapshot. Users without a resolvable name or manager cannot
// participate in the workflow and are turned away here.
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		slog.Warn("sign-in rejected by identity provider", "error", errParam, "description", r.URL.Query().Get("error_description"))
		api.Fail(w, http.StatusUnauthorized, "signin_failed", "sign-in was rejected by the identity provider", reqID)
		return
	}

	stateParam := r.URL.Query().Get("state")
	cookie, err := r.Cookie(stateCookie)
	if err != nil || stateParam == "" || cookie.Value != stateParam {
		api.Fail(w, http.StatusUnauthorized, "signin_failed", "state mismatch", reqID)
		return
	}
	h.clearCookie(w, stateCookie)

	code := r.URL.Query().Get("code")
	if code == "" {
		api.Fail(w, http.StatusUnauthorized, "signin_failed", "missing authorization code", reqID)
		return
	}

	token, err := h.OAuth.Exchange(r.Context(), code)
	if err != nil {
		slog.Error("token exchange failed", "err", err)
		api.Fail(w, http.StatusUnauthorized, "signin_failed", "token exchange failed", reqID)
		return
	}

	name, email, oid, err := identityClaims(token)
	if err != nil {
		slog.Error("id token parse failed", "err", err)
		api.Fail(w, http.StatusUnauthorized, "signin_failed", "invalid identity token", reqID)
		return
	}
	if name == "" {
		api.Fail(w, http.StatusForbidden, "signin_incomplete", "directory profile has no display name", reqID)
		return
	}

	resolution := h.Directory.Resolve(r.Context(), token.AccessToken)
	if resolution.ManagerName == "" {
		api.Fail(w, http.StatusForbidden, "signin_incomplete", "no manager is assigned in the directory", reqID)
		return
	}

	snapshot := identity.Snapshot{
		OID:                oid,
		Name:               name,
		Email:              email,
		ManagerName:        resolution.ManagerName,
		ProgramManagerName: resolution.ProgramManagerName,
		DirectReports:      resolution.DirectReports,
		RefreshedAt:        time.Now().UTC(),
	}

	sessionID := uuid.NewString()
	if err := h.Sessions.CreateSession(r.Context(), sessionID, snapshot, time.Now().Add(h.SessionTTL)); err != nil {
		slog.Error("session create failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "could not create session", reqID)
		return
	}

	signed, err := sessionauth.NewSessionToken(h.SessionSecret, sessionID, h.SessionTTL)
	if err != nil {
		slog.Error("session token mint failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "could not create session", reqID)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionauth.CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	if h.Audit != nil {
		if err := h.Audit.Record(r.Context(), name, email, "auth.signin", "session", sessionID, reqID, r.RemoteAddr, nil, nil); err != nil {
			slog.Warn("audit record failed", "err", err)
		}
	}

	next := "/"
	if nc, err := r.Cookie(nextCookie); err == nil && strings.HasPrefix(nc.Value, "/") {
		next = nc.Value
		h.clearCookie(w, nextCookie)
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// HandleLogout deletes the server-side session and clears the cookie. Always
// succeeds from the caller's point of view.
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionauth.CookieName); err == nil {
		if sessionID, err := sessionauth.ParseSessionToken(h.SessionSecret, cookie.Value); err == nil {
			if err := h.Sessions.DeleteSession(r.Context(), sessionID); err != nil && !errors.Is(err, identity.ErrSessionNotFound) {
				slog.Warn("session delete failed", "err", err)
			}
		}
	}
	h.clearCookie(w, sessionauth.CookieName)
	api.Success(w, map[string]string{"status": "signed out"}, middleware.GetRequestID(r.Context()))
}

// HandleMe returns the caller's resolved identity snapshot.
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.GetIdentity(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "sign-in required", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, ident, middleware.GetRequestID(r.Context()))
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// identityClaims reads name, email and object id from the unverified id
// token. The token came straight from the token endpoint over TLS, so local
// signature verification is not repeated here.
func identityClaims(token *oauth2.Token) (name, email, oid string, err error) {
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", "", "", errors.New("token response has no id_token")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return "", "", "", err
	}

	name, _ = claims["name"].(string)
	oid, _ = claims["oid"].(string)
	email, _ = claims["email"].(string)
	if email == "" {
		email, _ = claims["preferred_username"].(string)
	}
	return name, email, oid, nil
}
