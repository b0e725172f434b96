package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s *stubVerifier) Verify(string) (string, error) {
	return s.userID, s.err
}

func TestAuthenticateUser(t *testing.T) {
	testCases := []struct {
		name           string
		verifier       *stubVerifier
		authorization  string
		expectedStatus int
		expectedUserID string
	}{
		{
			name:           "valid token injects user into context",
			verifier:       &stubVerifier{userID: "user-1"},
			authorization:  "Bearer sometoken",
			expectedStatus: http.StatusOK,
			expectedUserID: "user-1",
		},
		{
			name:           "missing header",
			verifier:       &stubVerifier{userID: "user-1"},
			authorization:  "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			verifier:       &stubVerifier{userID: "user-1"},
			authorization:  "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "bearer without token",
			verifier:       &stubVerifier{userID: "user-1"},
			authorization:  "Bearer",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "verifier rejects token",
			verifier:       &stubVerifier{err: errors.New("token is expired")},
			authorization:  "Bearer expiredtoken",
			expectedStatus: http.StatusForbidden,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			var (
				handlerCalled bool
				gotUserID     string
			)
			next := http.HandlerFunc(func(_ http.ResponseWriter, request *http.Request) {
				handlerCalled = true
				gotUserID = UserIDFromContext(request.Context())
			})

			request := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
			if testCase.authorization != "" {
				request.Header.Set("Authorization", testCase.authorization)
			}
			recorder := httptest.NewRecorder()

			New(testCase.verifier).AuthenticateUser(next).ServeHTTP(recorder, request)

			result := recorder.Result()
			defer result.Body.Close()
			require.Equal(t, testCase.expectedStatus, result.StatusCode)
			if testCase.expectedStatus == http.StatusOK {
				assert.True(t, handlerCalled)
				assert.Equal(t, testCase.expectedUserID, gotUserID)
			} else {
				assert.False(t, handlerCalled)
			}
		})
	}
}

func TestUserIDFromContextWithoutMiddleware(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserIDFromContext(request.Context()))
}
