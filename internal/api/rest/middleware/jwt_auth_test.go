package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecomstack/api-gateway/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("middleware-test-secret")

func signTestToken(t *testing.T, secret []byte, issuedAt time.Time) string {
	t.Helper()

	token, err := identity.SignToken(secret, identity.Identity{
		ID:                "user-1",
		Email:             "john.doe@example.com",
		HasElevatedRights: true,
	}, issuedAt)
	require.NoError(t, err)

	return token
}

func TestJWTAuthMiddleware_Handler(t *testing.T) {
	testCases := map[string]struct {
		authorization      string
		expectedStatusCode int
		expectedMessage    string
	}{
		"should pass a valid bearer token through": {
			authorization:      "Bearer " + signTestToken(t, testSecret, time.Now()),
			expectedStatusCode: http.StatusOK,
		},
		"should accept a lowercase bearer scheme": {
			authorization:      "bearer " + signTestToken(t, testSecret, time.Now()),
			expectedStatusCode: http.StatusOK,
		},
		"should reject a request without an authorization header": {
			authorization:      "",
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "Authorization token required",
		},
		"should reject a header without a bearer scheme": {
			authorization:      signTestToken(t, testSecret, time.Now()),
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "Authorization token required",
		},
		"should reject a token signed with a different secret": {
			authorization:      "Bearer " + signTestToken(t, []byte("other-secret"), time.Now()),
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "Authorization error",
		},
		"should reject an expired token": {
			authorization:      "Bearer " + signTestToken(t, testSecret, time.Now().Add(-8*24*time.Hour)),
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "Authorization error",
		},
		"should reject a malformed token": {
			authorization:      "Bearer not.a.token",
			expectedStatusCode: http.StatusUnauthorized,
			expectedMessage:    "Authorization error",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var (
				nextCalled   bool
				forwardedReq *http.Request
			)
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				forwardedReq = r
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/order", nil)
			if tc.authorization != "" {
				req.Header.Set("Authorization", tc.authorization)
			}
			resp := httptest.NewRecorder()

			NewJWTAuthMiddleware(testSecret).Handler(next).ServeHTTP(resp, req)

			assert.Equal(t, tc.expectedStatusCode, resp.Code)

			if tc.expectedStatusCode != http.StatusOK {
				assert.False(t, nextCalled)

				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tc.expectedMessage, body["message"])
				return
			}

			require.True(t, nextCalled)

			// The raw token must never reach downstream services.
			assert.Empty(t, forwardedReq.Header.Get("Authorization"))

			var forwarded identity.Identity
			require.NoError(t, json.Unmarshal([]byte(forwardedReq.Header.Get(identity.Header)), &forwarded))
			assert.Equal(t, "user-1", forwarded.ID)
			assert.Equal(t, "john.doe@example.com", forwarded.Email)
			assert.True(t, forwarded.HasElevatedRights)

			id, ok := IdentityFromContext(forwardedReq.Context())
			require.True(t, ok)
			assert.Equal(t, "user-1", id.ID)
		})
	}
}
