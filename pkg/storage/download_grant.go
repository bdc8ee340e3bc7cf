package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const downloadAudience = "export-download"

var (
	// ErrInvalidGrant covers malformed, tampered and foreign tokens.
	ErrInvalidGrant = errors.New("invalid download grant")
	// ErrGrantExpired is returned for a well-formed grant past its expiry.
	ErrGrantExpired = errors.New("download grant expired")
)

// DownloadGrant is what a signed export link entitles its holder to fetch.
type DownloadGrant struct {
	ExportID  string
	Object    string
	Dataset   string
	Format    string
	ExpiresAt time.Time
}

type downloadClaims struct {
	Object  string `json:"obj"`
	Dataset string `json:"dataset"`
	Format  string `json:"format"`
	jwt.RegisteredClaims
}

// DownloadSigner issues HS256 tokens for stored exports. Tokens carry their own
// audience so session tokens signed with the same secret are refused.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadSigner returns a signer whose grants live for ttl (24h when unset).
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns the token for grant and its expiry. grant.ExpiresAt is ignored.
func (s *DownloadSigner) Sign(grant DownloadGrant) (string, time.Time, error) {
	if grant.ExportID == "" || grant.Object == "" || grant.Dataset == "" || grant.Format == "" {
		return "", time.Time{}, fmt.Errorf("sign download grant: export id, object, dataset and format are required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("sign download grant: secret missing")
	}
	issued := s.now().UTC().Truncate(time.Second)
	expiresAt := issued.Add(s.ttl)
	claims := downloadClaims{
		Object:  grant.Object,
		Dataset: grant.Dataset,
		Format:  grant.Format,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        grant.ExportID,
			Audience:  jwt.ClaimStrings{downloadAudience},
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download grant: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks token and returns the grant it carries.
func (s *DownloadSigner) Verify(token string) (*DownloadGrant, error) {
	claims := &downloadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(downloadAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrGrantExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidGrant, err)
	}
	if claims.ID == "" || claims.Object == "" || claims.Dataset == "" || claims.Format == "" {
		return nil, fmt.Errorf("%w: incomplete claims", ErrInvalidGrant)
	}
	return &DownloadGrant{
		ExportID:  claims.ID,
		Object:    claims.Object,
		Dataset:   claims.Dataset,
		Format:    claims.Format,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
