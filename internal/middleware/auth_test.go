package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mkovacev/runweek/internal/auth"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockVerifier := NewMocktokenVerifier(ctrl)
	authMiddleware := NewAuthMiddlewareHandler(mockVerifier)

	testCases := []struct {
		name               string
		path               string
		method             string
		authHeader         string
		verifiedUserID     string
		verifyErr          error
		expectVerifyCall   bool
		expectedStatusCode int
		expectedCallerID   string
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/api/auth/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/api/week/user-1",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ProtectedPathMalformedHeader",
			path:               "/api/week/user-1",
			method:             "GET",
			authHeader:         "Token abcdef",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/api/week/user-1",
			method:             "GET",
			authHeader:         "Bearer valid-token",
			verifiedUserID:     "user-1",
			expectVerifyCall:   true,
			expectedStatusCode: http.StatusOK,
			expectedCallerID:   "user-1",
		},
		{
			name:               "InvalidToken",
			path:               "/api/week/user-1",
			method:             "GET",
			authHeader:         "Bearer invalid-token",
			verifyErr:          auth.ErrInvalidToken,
			expectVerifyCall:   true,
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "OptionsPreflight",
			path:               "/api/week/user-1",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.expectVerifyCall {
				mockVerifier.EXPECT().
					VerifyToken(gomock.Any(), gomock.Any()).
					Return(tc.verifiedUserID, tc.verifyErr)
			}

			var gotCallerID string
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCallerID, _ = auth.CallerIDFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			rr := httptest.NewRecorder()

			authMiddleware.AuthCheck()(nextHandler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			if tc.expectedCallerID != "" {
				assert.Equal(t, tc.expectedCallerID, gotCallerID)
			}
		})
	}
}
