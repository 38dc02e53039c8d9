package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse(t *testing.T) {
	assert := assert.New(t)
	pair, err := GeneratePair(42)
	require.NoError(t, err)

	claims, err := ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(uint64(42), claims.UserID)
	assert.Equal("access", claims.Subject)

	// refresh token 不能当 access 用，反之亦然
	_, err = ParseAccess(pair.RefreshToken)
	assert.ErrorIs(err, ErrTokenInvalid)
	_, _, err = Refresh(pair.AccessToken)
	assert.ErrorIs(err, ErrRefreshInvalid)

	_, err = ParseAccess("garbage")
	assert.ErrorIs(err, ErrTokenInvalid)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	assert := assert.New(t)
	pair, err := GeneratePair(7)
	require.NoError(t, err)

	next, claims, err := Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(uint64(7), claims.UserID)
	got, err := ParseAccess(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(uint64(7), got.UserID)
}

func TestExpiredTokens(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	access, err := sign(1, "access", AccessTTL, accessSecret, past)
	require.NoError(t, err)
	refresh, err := sign(1, "refresh", RefreshTTL, refreshSecret, past)
	require.NoError(t, err)

	_, err = ParseAccess(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
	_, _, err = Refresh(refresh)
	assert.ErrorIs(t, err, ErrRefreshExpired)
}

func TestWrongSecret(t *testing.T) {
	token, err := sign(1, "access", AccessTTL, []byte("someone-else"), time.Now())
	require.NoError(t, err)
	_, err = ParseAccess(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMakeKeyFromID(t *testing.T) {
	assert.Equal(t, "18446744073709551615", MakeKeyFromID(^uint64(0)))
}

func TestNewKafkaProducerRequiresConfig(t *testing.T) {
	_, err := NewKafkaProducer(KafkaConfig{Topic: "dm"})
	assert.Error(t, err)

	p, err := NewKafkaProducer(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "dm"})
	require.NoError(t, err)
	assert.Equal(t, "dm", p.Topic())
	assert.NoError(t, p.Close())
}
