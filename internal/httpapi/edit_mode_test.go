package httpapi_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/editmode"
	"github.com/MarkoPoloResearchLab/homeboard/internal/viewport"
)

const (
	versionedToggleBody   = `{"configuration":{"schemaVersion":3,"widgets":[{"id":"clock"}]}}`
	unversionedToggleBody = `{"configuration":{"widgets":[]}}`
)

type toggleResponse struct {
	Enabled           bool   `json:"enabled"`
	SaveDispatched    bool   `json:"save_dispatched"`
	NotificationShown bool   `json:"notification_shown"`
	UnloadPrompt      string `json:"unload_prompt"`
}

func postToggle(testingT *testing.T, harness apiHarness, tabID string, body *string, cookies ...*http.Cookie) toggleResponse {
	testingT.Helper()
	request := newTabRequest(http.MethodPost, "/api/edit-mode/toggle", tabID, body)
	request.Header.Set(viewport.HeaderLegacyWidth, "1024")
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := harness.serve(request)
	require.Equal(testingT, http.StatusOK, recorder.Code, recorder.Body.String())

	var response toggleResponse
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &response))
	return response
}

func stringPointer(value string) *string {
	return &value
}

func TestToggleOnShowsLayoutWarning(testingT *testing.T) {
	harness := buildAPIHarness(testingT)
	tabID := newTabID()

	response := postToggle(testingT, harness, tabID, nil)
	require.True(testingT, response.Enabled)
	require.True(testingT, response.NotificationShown)
	require.False(testingT, response.SaveDispatched)
	require.Equal(testingT, editmode.UnloadWarning, response.UnloadPrompt)

	active := harness.center.Active(tabID)
	require.Len(testingT, active, 1)
	require.Equal(testingT, editmode.NotificationID, active[0].ID)
	require.Equal(testingT, "orange", active[0].Color)
	require.Equal(testingT, 10*time.Second, active[0].AutoClose)
	require.Equal(testingT, testDocumentationURL, active[0].LinkURL)
	require.Contains(testingT, active[0].Message, "md")
	require.Empty(testingT, harness.dispatcher.recorded())
}

func TestToggleOffSavesVersionedConfigurationUnderCookieName(testingT *testing.T) {
	harness := buildAPIHarness(testingT)
	tabID := newTabID()

	sessionCookie := createAuthenticatedSessionCookie(testingT, testUserEmail, testUserName)

	postToggle(testingT, harness, tabID, nil, sessionCookie)
	response := postToggle(testingT, harness, tabID, stringPointer(versionedToggleBody), sessionCookie, &http.Cookie{Name: configs.NameCookie, Value: "kitchen"})
	require.False(testingT, response.Enabled)
	require.True(testingT, response.SaveDispatched)
	require.Empty(testingT, response.UnloadPrompt)

	saves := harness.dispatcher.recorded()
	require.Len(testingT, saves, 1)
	require.Equal(testingT, "kitchen", saves[0].name)
	require.NotNil(testingT, saves[0].configuration.SchemaVersion)
	require.Equal(testingT, 3, *saves[0].configuration.SchemaVersion)
	require.JSONEq(testingT, `{"schemaVersion":3,"widgets":[{"id":"clock"}]}`, string(saves[0].configuration.Payload))
	require.Empty(testingT, harness.center.Active(tabID))
}

func TestToggleOffWithoutSchemaVersionSkipsSave(testingT *testing.T) {
	testCases := []struct {
		name string
		body *string
	}{
		{name: "no body", body: nil},
		{name: "null configuration", body: stringPointer(`{"configuration":null}`)},
		{name: "unversioned configuration", body: stringPointer(unversionedToggleBody)},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			harness := buildAPIHarness(subTest)
			tabID := newTabID()

			sessionCookie := createAuthenticatedSessionCookie(subTest, testUserEmail, testUserName)

			postToggle(subTest, harness, tabID, nil, sessionCookie)
			response := postToggle(subTest, harness, tabID, testCase.body, sessionCookie)
			require.False(subTest, response.Enabled)
			require.False(subTest, response.SaveDispatched)
			require.Empty(subTest, harness.dispatcher.recorded())
			require.False(subTest, harness.registry.Cell(tabID).Enabled())
		})
	}
}

func TestToggleOffSkipsSaveForAnonymousOrInvalidName(testingT *testing.T) {
	testCases := []struct {
		name    string
		cookies func(subTest *testing.T) []*http.Cookie
	}{
		{
			name:    "anonymous caller",
			cookies: func(subTest *testing.T) []*http.Cookie { return nil },
		},
		{
			name: "invalid configuration name",
			cookies: func(subTest *testing.T) []*http.Cookie {
				return []*http.Cookie{
					createAuthenticatedSessionCookie(subTest, testUserEmail, testUserName),
					{Name: configs.NameCookie, Value: "../kitchen"},
				}
			},
		},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			harness := buildAPIHarness(subTest)
			tabID := newTabID()
			cookies := testCase.cookies(subTest)

			postToggle(subTest, harness, tabID, nil, cookies...)
			response := postToggle(subTest, harness, tabID, stringPointer(versionedToggleBody), cookies...)

			require.False(subTest, response.Enabled)
			require.False(subTest, response.SaveDispatched)
			require.Empty(subTest, harness.dispatcher.recorded())
			require.False(subTest, harness.registry.Cell(tabID).Enabled())
		})
	}
}

func TestToggleDefaultsConfigurationName(testingT *testing.T) {
	harness := buildAPIHarness(testingT)
	tabID := newTabID()

	sessionCookie := createAuthenticatedSessionCookie(testingT, testUserEmail, testUserName)

	postToggle(testingT, harness, tabID, nil, sessionCookie)
	postToggle(testingT, harness, tabID, stringPointer(versionedToggleBody), sessionCookie)

	saves := harness.dispatcher.recorded()
	require.Len(testingT, saves, 1)
	require.Equal(testingT, configs.DefaultName, saves[0].name)
}

func TestToggleRejectsMalformedBodies(testingT *testing.T) {
	testCases := []struct {
		name          string
		body          string
		expectedError string
	}{
		{name: "not json", body: `{"configuration":`, expectedError: "invalid_json"},
		{name: "configuration is not an object", body: `{"configuration":[1,2]}`, expectedError: "invalid_configuration"},
		{name: "schema version is not an integer", body: `{"configuration":{"schemaVersion":"two"}}`, expectedError: "invalid_configuration"},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			harness := buildAPIHarness(subTest)
			tabID := newTabID()

			recorder := harness.serve(newTabRequest(http.MethodPost, "/api/edit-mode/toggle", tabID, stringPointer(testCase.body)))
			require.Equal(subTest, http.StatusBadRequest, recorder.Code)
			require.JSONEq(subTest, `{"error":"`+testCase.expectedError+`"}`, recorder.Body.String())
			require.False(subTest, harness.registry.Cell(tabID).Enabled())
		})
	}
}

func TestTogglesAreScopedToTabs(testingT *testing.T) {
	harness := buildAPIHarness(testingT)
	firstTab := newTabID()
	secondTab := newTabID()

	postToggle(testingT, harness, firstTab, nil)

	require.True(testingT, harness.registry.Cell(firstTab).Enabled())
	require.False(testingT, harness.registry.Cell(secondTab).Enabled())
	require.Empty(testingT, harness.center.Active(secondTab))
}

func TestEditModeStateReportsUnloadPrompt(testingT *testing.T) {
	harness := buildAPIHarness(testingT)
	tabID := newTabID()

	readState := func() map[string]any {
		recorder := harness.serve(newTabRequest(http.MethodGet, "/api/edit-mode", tabID, nil))
		require.Equal(testingT, http.StatusOK, recorder.Code)
		var state map[string]any
		require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &state))
		return state
	}

	require.Equal(testingT, map[string]any{"enabled": false, "unload_prompt": ""}, readState())

	postToggle(testingT, harness, tabID, nil)
	require.Equal(testingT, map[string]any{"enabled": true, "unload_prompt": editmode.UnloadWarning}, readState())

	postToggle(testingT, harness, tabID, nil)
	require.Equal(testingT, map[string]any{"enabled": false, "unload_prompt": ""}, readState())
}

func TestEditModeControlVariants(testingT *testing.T) {
	testCases := []struct {
		name            string
		width           string
		enabled         bool
		expectedVariant string
		expectAdd       bool
	}{
		{name: "compact off", width: "500", enabled: false, expectedVariant: `data-variant="compact"`, expectAdd: false},
		{name: "compact on", width: "700", enabled: true, expectedVariant: `data-variant="compact"`, expectAdd: true},
		{name: "full off", width: "1300", enabled: false, expectedVariant: `data-variant="full"`, expectAdd: false},
		{name: "full on", width: "768", enabled: true, expectedVariant: `data-variant="full"`, expectAdd: true},
		{name: "unknown width renders full", width: "", enabled: true, expectedVariant: `data-variant="full"`, expectAdd: true},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			harness := buildAPIHarness(subTest)
			tabID := newTabID()
			if testCase.enabled {
				harness.registry.Cell(tabID).Toggle()
			}

			request := newTabRequest(http.MethodGet, "/api/edit-mode/control", tabID, nil)
			if testCase.width != "" {
				request.Header.Set(viewport.HeaderClientHintWidth, testCase.width)
			}
			recorder := harness.serve(request)
			require.Equal(subTest, http.StatusOK, recorder.Code)
			require.Contains(subTest, recorder.Header().Get("Content-Type"), "text/html")

			body := recorder.Body.String()
			require.Contains(subTest, body, testCase.expectedVariant)
			require.Contains(subTest, body, `id="edit-mode-toggle"`)
			if testCase.expectAdd {
				require.Contains(subTest, body, `id="edit-mode-add"`)
				require.Contains(subTest, body, `data-edit-mode="on"`)
			} else {
				require.NotContains(subTest, body, `id="edit-mode-add"`)
				require.Contains(subTest, body, `data-edit-mode="off"`)
			}
		})
	}
}

func TestReleaseForgetsTabState(testingT *testing.T) {
	harness := buildAPIHarness(testingT)
	tabID := newTabID()
	postToggle(testingT, harness, tabID, nil)

	recorder := harness.serve(newTabRequest(http.MethodPost, "/api/edit-mode/release?client="+tabID, "", nil))
	require.Equal(testingT, http.StatusNoContent, recorder.Code)
	require.Empty(testingT, harness.center.Active(tabID))
	require.False(testingT, harness.registry.Cell(tabID).Enabled())
}

func TestEditModeControlOrdersButtonsByVariant(testingT *testing.T) {
	testCases := []struct {
		name           string
		width          string
		expectAddFirst bool
	}{
		{name: "compact puts add before toggle", width: "500", expectAddFirst: true},
		{name: "full puts toggle before add", width: "1300", expectAddFirst: false},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(subTest *testing.T) {
			harness := buildAPIHarness(subTest)
			tabID := newTabID()
			harness.registry.Cell(tabID).Toggle()

			request := newTabRequest(http.MethodGet, "/api/edit-mode/control", tabID, nil)
			request.Header.Set(viewport.HeaderClientHintWidth, testCase.width)
			recorder := harness.serve(request)
			require.Equal(subTest, http.StatusOK, recorder.Code)

			body := recorder.Body.String()
			addIndex := strings.Index(body, `id="edit-mode-add"`)
			toggleIndex := strings.Index(body, `id="edit-mode-toggle"`)
			require.NotEqual(subTest, -1, addIndex)
			require.NotEqual(subTest, -1, toggleIndex)
			require.Equal(subTest, testCase.expectAddFirst, addIndex < toggleIndex)
		})
	}
}
