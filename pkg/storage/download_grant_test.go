package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sitesGrant() DownloadGrant {
	return DownloadGrant{
		ExportID: "exp-1",
		Object:   "exports/2026/03/05/sites_101500_exp1.xlsx",
		Dataset:  "sites",
		Format:   "xlsx",
	}
}

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)

	token, expiresAt, err := signer.Sign(sitesGrant())
	require.NoError(t, err)

	grant, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", grant.ExportID)
	assert.Equal(t, "exports/2026/03/05/sites_101500_exp1.xlsx", grant.Object)
	assert.Equal(t, "sites", grant.Dataset)
	assert.Equal(t, "xlsx", grant.Format)
	assert.True(t, expiresAt.Equal(grant.ExpiresAt))
}

func TestDownloadSignerExpiry(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	issued := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }

	token, _, err := signer.Sign(sitesGrant())
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = signer.Verify(token)
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrGrantExpired)
}

func TestDownloadSignerRefusesForeignTokens(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Sign(sitesGrant())
	require.NoError(t, err)

	_, err = NewDownloadSigner("other", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidGrant)

	widened := sitesGrant()
	widened.Dataset = "files"
	other, _, err := signer.Sign(widened)
	require.NoError(t, err)
	spliced := other[:strings.LastIndex(other, ".")] + token[strings.LastIndex(token, "."):]
	_, err = signer.Verify(spliced)
	assert.ErrorIs(t, err, ErrInvalidGrant)

	session, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "exp-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = signer.Verify(session)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestDownloadSignerRequiresCompleteGrant(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)

	grant := sitesGrant()
	grant.Format = ""
	_, _, err := signer.Sign(grant)
	assert.Error(t, err)

	_, _, err = NewDownloadSigner("", time.Hour).Sign(sitesGrant())
	assert.Error(t, err)
}
