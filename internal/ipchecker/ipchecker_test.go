package ipchecker

import (
	"net"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	checker, err := New("10.0.0.0/8")
	require.NoError(t, err)

	assert.False(t, checker.IsTrustedSubnetEmpty())
	assert.True(t, checker.Check(net.ParseIP("10.1.2.3")))
	assert.False(t, checker.Check(net.ParseIP("192.168.1.10")))
}

func TestEmptySubnet(t *testing.T) {
	checker, err := New("")
	require.NoError(t, err)

	assert.True(t, checker.IsTrustedSubnetEmpty())
	assert.False(t, checker.Check(net.ParseIP("10.1.2.3")))
}

func TestMalformedSubnet(t *testing.T) {
	_, err := New("300.0.0.0/99")
	assert.Error(t, err)
}

func TestGetClientIP(t *testing.T) {
	checker, err := New("10.0.0.0/8")
	require.NoError(t, err)

	testCases := []struct {
		name       string
		realIP     string
		forwarded  string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Real-IP wins",
			realIP:     "10.0.0.1",
			forwarded:  "192.168.1.1",
			remoteAddr: "127.0.0.1:1234",
			expected:   "10.0.0.1",
		},
		{
			name:       "first X-Forwarded-For entry",
			forwarded:  "10.0.0.2, 192.168.1.1",
			remoteAddr: "127.0.0.1:1234",
			expected:   "10.0.0.2",
		},
		{
			name:       "falls back to RemoteAddr",
			remoteAddr: "10.0.0.3:1234",
			expected:   "10.0.0.3",
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/api/internal/stats", nil)
			request.RemoteAddr = testCase.remoteAddr
			if testCase.realIP != "" {
				request.Header.Set("X-Real-IP", testCase.realIP)
			}
			if testCase.forwarded != "" {
				request.Header.Set("X-Forwarded-For", testCase.forwarded)
			}

			clientIP, err := checker.GetClientIP(request)
			require.NoError(t, err)
			assert.Equal(t, testCase.expected, clientIP.String())
		})
	}
}
