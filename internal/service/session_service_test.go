package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestSessionServiceUsesRegistryRole(t *testing.T) {
	users := newUserRepoStub(models.User{ID: "sup-1", FullName: "Ravi Supervisor", Email: "ravi@gwd.local", Role: models.RoleViewer, Active: true})
	svc := NewSessionService(users, SessionConfig{Secret: "s3cret", Issuer: "gwd-idp"}, nil)

	token := signToken(t, "s3cret", models.JWTClaims{
		UserID: "sup-1", Role: models.RoleSupervisor,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "gwd-idp"},
	})
	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleViewer, claims.Role)
	assert.Equal(t, "Ravi Supervisor", claims.DisplayName())
}

func TestSessionServiceRejectsBadTokens(t *testing.T) {
	users := newUserRepoStub(models.User{ID: "off-1", Role: models.RoleEditor, Active: false})
	svc := NewSessionService(users, SessionConfig{Secret: "s3cret", Issuer: "gwd-idp"}, nil)

	cases := map[string]string{
		"wrong secret": signToken(t, "other", models.JWTClaims{UserID: "off-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "gwd-idp"}}),
		"wrong issuer": signToken(t, "s3cret", models.JWTClaims{UserID: "off-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "x"}}),
		"expired": signToken(t, "s3cret", models.JWTClaims{UserID: "off-1", RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "gwd-idp", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}),
		"inactive":   signToken(t, "s3cret", models.JWTClaims{UserID: "off-1", RegisteredClaims: jwt.RegisteredClaims{Issuer: "gwd-idp"}}),
		"unknown":    signToken(t, "s3cret", models.JWTClaims{UserID: "ghost", RegisteredClaims: jwt.RegisteredClaims{Issuer: "gwd-idp"}}),
		"no subject": signToken(t, "s3cret", models.JWTClaims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "gwd-idp"}}),
		"garbage":    "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(context.Background(), token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}

func TestSessionServiceWithoutRegistryTrustsTokenRole(t *testing.T) {
	svc := NewSessionService(nil, SessionConfig{Secret: "s3cret"}, nil)

	claims, err := svc.ValidateToken(context.Background(), signToken(t, "s3cret", models.JWTClaims{UserID: "e-1", Role: models.RoleEditor}))
	require.NoError(t, err)
	assert.Equal(t, models.RoleEditor, claims.Role)

	_, err = svc.ValidateToken(context.Background(), signToken(t, "s3cret", models.JWTClaims{UserID: "e-1", Role: "ROOT"}))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
