// Package auth supplies bearer tokens for Vertex AI calls.
//
// Token acquisition and refresh are left to cloud.google.com/go/auth; this
// package only adapts its credentials to [vertex.TokenProvider].
package auth

import (
	"context"
	"errors"
	"fmt"

	gauth "cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/fwojciec/vertex"
)

// Scope is the OAuth scope Vertex AI requires.
const Scope = "https://www.googleapis.com/auth/cloud-platform"

var errEmptyToken = errors.New("auth: empty token")

// Static returns a provider that always yields token.
func Static(token string) vertex.TokenProvider {
	return vertex.TokenProviderFunc(func(context.Context) (string, error) {
		if token == "" {
			return "", errEmptyToken
		}
		return token, nil
	})
}

// Interface compliance check.
var _ vertex.TokenProvider = (*Credentials)(nil)

// Credentials adapts [gauth.Credentials] to [vertex.TokenProvider].
type Credentials struct {
	creds *gauth.Credentials
}

// FromCredentials wraps creds.
func FromCredentials(creds *gauth.Credentials) *Credentials {
	return &Credentials{creds: creds}
}

// Token returns the current access token, refreshing it when needed.
func (c *Credentials) Token(ctx context.Context) (string, error) {
	tok, err := c.creds.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	if tok == nil || tok.Value == "" {
		return "", errEmptyToken
	}
	return tok.Value, nil
}

// ProjectID returns the project the credentials belong to, if known.
func (c *Credentials) ProjectID(ctx context.Context) (string, error) {
	id, err := c.creds.ProjectID(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: %w", err)
	}
	return id, nil
}

// DetectOptions selects the credential source. With neither field set,
// application default credentials are used.
type DetectOptions struct {
	// CredentialsJSON is a service account or authorized user key.
	CredentialsJSON []byte
	// CredentialsFile is a path to such a key.
	CredentialsFile string
}

// Detect loads credentials with the cloud-platform scope.
func Detect(opts DetectOptions) (*Credentials, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes:          []string{Scope},
		CredentialsJSON: opts.CredentialsJSON,
		CredentialsFile: opts.CredentialsFile,
	})
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return FromCredentials(creds), nil
}
