package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-signing-secret")

func TestIssueAndVerify(t *testing.T) {
	tokens := New(testSecret, time.Hour)

	tokenString, err := tokens.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	userID, err := tokens.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestVerifyExpired(t *testing.T) {
	tokens := New(testSecret, -time.Minute)

	tokenString, err := tokens.Issue("user-1")
	require.NoError(t, err)

	_, err = tokens.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyMalformed(t *testing.T) {
	tokens := New(testSecret, time.Hour)

	testCases := []struct {
		name        string
		tokenString string
	}{
		{name: "empty", tokenString: ""},
		{name: "garbage", tokenString: "not.a.token"},
		{name: "truncated", tokenString: "eyJhbGciOiJIUzI1NiJ9"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			_, err := tokens.Verify(testCase.tokenString)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tokens := New(testSecret, time.Hour)
	tokenString, err := tokens.Issue("user-1")
	require.NoError(t, err)

	otherTokens := New([]byte("another-secret"), time.Hour)
	_, err = otherTokens.Verify(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTamperedPayload(t *testing.T) {
	tokens := New(testSecret, time.Hour)
	tokenString, err := tokens.Issue("user-1")
	require.NoError(t, err)

	tampered := tokenString[:len(tokenString)-2] + "xx"
	_, err = tokens.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
