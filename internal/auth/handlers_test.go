package auth_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/temirov/GAuss/pkg/constants"
	"github.com/temirov/GAuss/pkg/gauss"
	"github.com/temirov/GAuss/pkg/session"

	"github.com/MarkoPoloResearchLab/homeboard/internal/auth"
)

const (
	testGoogleClientID     = "homeboard-client-id"
	testGoogleClientSecret = "homeboard-client-secret"
	testSessionSecret      = "12345678901234567890123456789012"
)

func newTestServeMux(testingT *testing.T) *http.ServeMux {
	testingT.Helper()
	session.NewSession([]byte(testSessionSecret))

	oauthHandlers, handlersErr := auth.NewHandlers(auth.Config{
		GoogleClientID:     testGoogleClientID,
		GoogleClientSecret: testGoogleClientSecret,
		PublicBaseURL:      "http://board.example.com",
		LocalRedirectPath:  "/manage",
		Scopes:             gauss.ScopeStrings(gauss.DefaultScopes),
	})
	require.NoError(testingT, handlersErr)

	serveMux := http.NewServeMux()
	oauthHandlers.RegisterRoutes(serveMux)
	return serveMux
}

func TestGoogleAuthRedirectHonorsForwardedHeaders(testingT *testing.T) {
	testCases := []struct {
		name                string
		host                string
		headers             map[string]string
		expectedRedirectURI string
	}{
		{
			name:                "forwarded proto",
			host:                "board.example.com",
			headers:             map[string]string{"X-Forwarded-Proto": "https"},
			expectedRedirectURI: "https://board.example.com" + constants.CallbackPath,
		},
		{
			name:                "forwarded host",
			host:                "10.0.0.5:8080",
			headers:             map[string]string{"X-Forwarded-Proto": "https", "X-Forwarded-Host": "home.example.org"},
			expectedRedirectURI: "https://home.example.org" + constants.CallbackPath,
		},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			serveMux := newTestServeMux(subTest)

			request := httptest.NewRequest(http.MethodGet, constants.GoogleAuthPath, nil)
			request.Host = testCase.host
			for headerName, headerValue := range testCase.headers {
				request.Header.Set(headerName, headerValue)
			}

			recorder := httptest.NewRecorder()
			serveMux.ServeHTTP(recorder, request)
			require.Equal(subTest, http.StatusFound, recorder.Code)

			redirectURL, parseErr := url.Parse(recorder.Header().Get("Location"))
			require.NoError(subTest, parseErr)
			require.Equal(subTest, testCase.expectedRedirectURI, redirectURL.Query().Get("redirect_uri"))
		})
	}
}

func TestNewHandlersRejectsMalformedBaseURL(testingT *testing.T) {
	session.NewSession([]byte(testSessionSecret))
	_, handlersErr := auth.NewHandlers(auth.Config{
		GoogleClientID:     testGoogleClientID,
		GoogleClientSecret: testGoogleClientSecret,
		PublicBaseURL:      "http://[::1",
	})
	require.Error(testingT, handlersErr)
}
