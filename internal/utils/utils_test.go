package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", Claims{Subject: "64b7f0c2a1b2c3d4e5f60718", Role: "company", Email: "hr@acme.io"}, 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	c, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "64b7f0c2a1b2c3d4e5f60718", c.Subject)
	assert.Equal(t, "company", c.Role)
	assert.Equal(t, "hr@acme.io", c.Email)
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("one", Claims{Subject: "abc", Role: "admin"}, 5)
	require.NoError(t, err)

	_, err = ParseAccessToken("two", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	tok, err := NewAccessToken("s", Claims{Subject: "abc", Role: "admin"}, -1)
	require.NoError(t, err)

	_, err = ParseAccessToken("s", tok.Token)
	assert.Error(t, err)
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Equal(t, HashRefreshRaw(rt.Raw), HashRefreshRaw(rt.Raw))
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter2"))
	assert.False(t, VerifyPassword(h, "hunter3"))
	assert.False(t, VerifyPassword("", "hunter2"))
}

func TestNewUniqueLink(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a, err := NewUniqueLink(now)
	require.NoError(t, err)
	b, err := NewUniqueLink(now)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^interview-1700000000123-[0-9a-f]{32}$`), a)
	assert.NotEqual(t, a, b)
}

func TestInterviewURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/interview/interview-1-ab", InterviewURL("http://localhost:3000/", "interview-1-ab"))
}
