// Orderdesk - Order and Catalog Reporting Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orderdesk

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tomtom215/orderdesk/internal/config"
	"github.com/tomtom215/orderdesk/internal/models"
)

var (
	// ErrNoCredentials means the request carried no actor at all.
	ErrNoCredentials = errors.New("no credentials supplied")

	// ErrInvalidToken covers bad signatures, expiry and unusable claims.
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Development headers read by HeaderResolver.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
	HeaderActorName = "X-Actor-Name"
)

// Resolver extracts the calling actor from a request.
type Resolver interface {
	Resolve(r *http.Request) (*models.Actor, error)
}

// JWTResolver reads "Authorization: Bearer <token>".
type JWTResolver struct {
	manager *JWTManager
}

// NewJWTResolver creates a bearer-token resolver.
func NewJWTResolver(manager *JWTManager) *JWTResolver {
	return &JWTResolver{manager: manager}
}

// Resolve implements Resolver.
func (j *JWTResolver) Resolve(r *http.Request) (*models.Actor, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoCredentials
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}

	claims, err := j.manager.ValidateToken(strings.TrimSpace(token))
	if err != nil {
		return nil, err
	}
	return claims.Actor()
}

// HeaderResolver trusts plain X-Actor-* headers. Only for AUTH_MODE=none,
// which config validation rejects in production.
type HeaderResolver struct{}

// Resolve implements Resolver.
func (HeaderResolver) Resolve(r *http.Request) (*models.Actor, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderActorID))
	if id == "" {
		return nil, ErrNoCredentials
	}
	role, err := models.ParseRole(r.Header.Get(HeaderActorRole))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return &models.Actor{ID: id, Role: role, Name: r.Header.Get(HeaderActorName)}, nil
}

// NewResolver picks the resolver for the configured auth mode.
func NewResolver(cfg *config.SecurityConfig) (Resolver, error) {
	switch cfg.AuthMode {
	case "jwt":
		manager, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return NewJWTResolver(manager), nil
	case "none":
		return HeaderResolver{}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.AuthMode)
	}
}
