package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
)

// SessionConfig describes the tokens accepted from the identity provider.
type SessionConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// SessionService verifies bearer tokens. Tokens are minted elsewhere; this
// service only checks them and resolves the caller against the staff registry.
type SessionService struct {
	users  userFinder
	config SessionConfig
	logger *zap.Logger
}

// NewSessionService constructs a SessionService. users may be nil, in which
// case the role carried by the token is trusted as is.
func NewSessionService(users userFinder, config SessionConfig, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{users: users, config: config, logger: logger}
}

// ValidateToken parses and validates an access token returning the claims.
func (s *SessionService) ValidateToken(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}
	if s.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.config.Audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if s.users == nil {
		if !claims.Role.Valid() {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown role")
		}
		return claims, nil
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user is not registered")
		}
		return nil, appErrors.Internal(err, "failed to resolve user")
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "user is inactive")
	}
	if claims.Role != user.Role {
		s.logger.Debug("token role superseded by registry", zap.String("uid", user.ID),
			zap.String("token_role", string(claims.Role)), zap.String("role", string(user.Role)))
	}
	claims.Role = user.Role
	if claims.FullName == "" {
		claims.FullName = user.FullName
	}
	if claims.Email == "" {
		claims.Email = user.Email
	}
	return claims, nil
}
