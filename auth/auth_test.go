package auth_test

import (
	"context"
	"errors"
	"testing"

	gauth "cloud.google.com/go/auth"
	"github.com/fwojciec/vertex/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenProviderFunc func(ctx context.Context) (*gauth.Token, error)

func (f tokenProviderFunc) Token(ctx context.Context) (*gauth.Token, error) {
	return f(ctx)
}

func TestStatic(t *testing.T) {
	t.Parallel()
	t.Run("returns token", func(t *testing.T) {
		t.Parallel()
		got, err := auth.Static("abc").Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "abc", got)
	})

	t.Run("empty token fails", func(t *testing.T) {
		t.Parallel()
		_, err := auth.Static("").Token(context.Background())
		assert.Error(t, err)
	})
}

func TestCredentials_Token(t *testing.T) {
	t.Parallel()
	t.Run("returns token value", func(t *testing.T) {
		t.Parallel()
		creds := gauth.NewCredentials(&gauth.CredentialsOptions{
			TokenProvider: tokenProviderFunc(func(ctx context.Context) (*gauth.Token, error) {
				return &gauth.Token{Value: "ya29.token", Type: "Bearer"}, nil
			}),
		})
		got, err := auth.FromCredentials(creds).Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ya29.token", got)
	})

	t.Run("wraps provider error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("metadata server unreachable")
		creds := gauth.NewCredentials(&gauth.CredentialsOptions{
			TokenProvider: tokenProviderFunc(func(ctx context.Context) (*gauth.Token, error) {
				return nil, wantErr
			}),
		})
		_, err := auth.FromCredentials(creds).Token(context.Background())
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("empty token fails", func(t *testing.T) {
		t.Parallel()
		creds := gauth.NewCredentials(&gauth.CredentialsOptions{
			TokenProvider: tokenProviderFunc(func(ctx context.Context) (*gauth.Token, error) {
				return &gauth.Token{}, nil
			}),
		})
		_, err := auth.FromCredentials(creds).Token(context.Background())
		assert.Error(t, err)
	})
}

func TestDetect_InvalidJSON(t *testing.T) {
	t.Parallel()
	_, err := auth.Detect(auth.DetectOptions{CredentialsJSON: []byte("not json")})
	assert.Error(t, err)
}
