package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	koyomiErrors "github.com/harunnryd/koyomi/internal/errors"

	"golang.org/x/oauth2"
)

// AuthURL builds the Google consent URL bound to the given state nonce.
func (s *Service) AuthURL(state string) (string, error) {
	if !s.Configured() {
		return "", koyomiErrors.NotConnected("google oauth is not configured")
	}

	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Exchange trades an authorization code for a fresh Connection. The
// account email is looked up best-effort; failures leave a placeholder.
func (s *Service) Exchange(ctx context.Context, code string) (*Connection, error) {
	if !s.Configured() {
		return nil, koyomiErrors.NotConnected("google oauth is not configured")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, koyomiErrors.Upstream(fmt.Sprintf("code exchange failed: %v", err))
	}

	email := s.lookupEmail(ctx, token)
	if email == "" {
		email = "Google user"
	}

	scope, _ := token.Extra("scope").(string)
	return &Connection{
		Email:     email,
		Token:     token,
		Scope:     scope,
		CreatedAt: time.Now(),
	}, nil
}

func (s *Service) lookupEmail(ctx context.Context, token *oauth2.Token) string {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = s.timeout

	var profile struct {
		Email string `json:"email"`
	}
	if err := s.doJSON(ctx, client, http.MethodGet, userinfoURL, nil, &profile); err != nil {
		return ""
	}
	return profile.Email
}
