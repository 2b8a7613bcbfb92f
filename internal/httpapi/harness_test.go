package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/temirov/GAuss/pkg/constants"
	"github.com/temirov/GAuss/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/editmode"
	"github.com/MarkoPoloResearchLab/homeboard/internal/httpapi"
	"github.com/MarkoPoloResearchLab/homeboard/internal/notification"
	"github.com/MarkoPoloResearchLab/homeboard/internal/testutil"
)

const (
	testSessionSecret    = "12345678901234567890123456789012"
	testDocumentationURL = "https://docs.example.com/layouts"
	testIssuesURL        = "https://github.com/example/homeboard/issues"
	testPackageVersion   = "1.4.2"
	testUserEmail        = "owner@example.com"
	testUserName         = "Olive Owner"
)

type dispatchedSave struct {
	name          string
	configuration configs.Configuration
}

type recordingDispatcher struct {
	mutex sync.Mutex
	saves []dispatchedSave
}

func (dispatcher *recordingDispatcher) Dispatch(name string, configuration configs.Configuration) {
	dispatcher.mutex.Lock()
	defer dispatcher.mutex.Unlock()
	dispatcher.saves = append(dispatcher.saves, dispatchedSave{name: name, configuration: configuration})
}

func (dispatcher *recordingDispatcher) recorded() []dispatchedSave {
	dispatcher.mutex.Lock()
	defer dispatcher.mutex.Unlock()
	return append([]dispatchedSave(nil), dispatcher.saves...)
}

type apiHarness struct {
	router      *gin.Engine
	database    *gorm.DB
	repository  *configs.Repository
	registry    *editmode.Registry
	center      *notification.Center
	broadcaster *notification.Broadcaster
	dispatcher  *recordingDispatcher
	authManager *httpapi.AuthManager
}

func buildAPIHarness(testingT *testing.T) apiHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)
	session.NewSession([]byte(testSessionSecret))

	database := testutil.NewMigratedSQLiteDatabase(testingT)
	repository := configs.NewRepository(database)
	registry := editmode.NewRegistry()
	broadcaster := notification.NewBroadcaster()
	testingT.Cleanup(broadcaster.Close)
	center := notification.NewCenter(notification.WithPublisher(broadcaster))
	dispatcher := &recordingDispatcher{}
	logger := zap.NewNop()

	shell, shellErr := httpapi.NewShellRenderer(httpapi.ShellConfig{
		DocumentationURL: testDocumentationURL,
		IssuesURL:        testIssuesURL,
		PackageVersion:   testPackageVersion,
	})
	require.NoError(testingT, shellErr)

	authManager := httpapi.NewAuthManager(database, logger)
	editModeHandlers := httpapi.NewEditModeHandlers(httpapi.EditModeConfig{
		Registry:         registry,
		Center:           center,
		Dispatcher:       dispatcher,
		DocumentationURL: testDocumentationURL,
		Logger:           logger,
	})
	boardHandlers := httpapi.NewBoardPageHandlers(shell, editModeHandlers, repository, logger)
	notificationHandlers := httpapi.NewNotificationHandlers(center, broadcaster, logger)
	configurationHandlers := httpapi.NewConfigurationHandlers(repository, logger)
	manageHandlers := httpapi.NewManagePageHandlers(shell, database, repository, logger)
	inviteHandlers := httpapi.NewInviteHandlers(database, logger)

	router := gin.New()
	router.Use(httpapi.ClientIdentity())
	router.GET(httpapi.BoardPagePath, authManager.OptionalUser(), boardHandlers.RenderBoard)
	router.GET(httpapi.ManagePath, authManager.RequireAuthenticatedWeb(), manageHandlers.RenderHome)
	router.GET(httpapi.ManageUsersPath, authManager.RequireAuthenticatedWeb(), manageHandlers.RenderUsers)
	router.GET(httpapi.ManageInvitesPath, authManager.RequireAuthenticatedWeb(), manageHandlers.RenderInvites)
	router.GET(httpapi.EditModeStatePath, editModeHandlers.State)
	router.POST(httpapi.EditModeTogglePath, authManager.OptionalUser(), editModeHandlers.Toggle)
	router.GET(httpapi.EditModeControlPath, editModeHandlers.Control)
	router.POST(httpapi.EditModeReleasePath, editModeHandlers.Release)
	router.GET(httpapi.NotificationsPath, notificationHandlers.List)
	router.GET(httpapi.NotificationEventsPath, notificationHandlers.Stream)
	router.DELETE(httpapi.NotificationsPath+"/:id", notificationHandlers.Dismiss)

	configsGroup := router.Group(httpapi.ConfigurationsPath, authManager.RequireAuthenticatedJSON())
	configsGroup.GET("", configurationHandlers.List)
	configsGroup.GET("/:name", configurationHandlers.Get)
	configsGroup.PUT("/:name", configurationHandlers.Put)

	invitesGroup := router.Group(httpapi.InvitesPath, authManager.RequireAuthenticatedJSON())
	invitesGroup.GET("", inviteHandlers.List)
	invitesGroup.POST("", inviteHandlers.Create)
	invitesGroup.DELETE("/:id", inviteHandlers.Delete)

	return apiHarness{
		router:      router,
		database:    database,
		repository:  repository,
		registry:    registry,
		center:      center,
		broadcaster: broadcaster,
		dispatcher:  dispatcher,
		authManager: authManager,
	}
}

func (harness apiHarness) serve(request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	harness.router.ServeHTTP(recorder, request)
	return recorder
}

func newTabID() string {
	return uuid.NewString()
}

func newTabRequest(method string, target string, tabID string, body *string) *http.Request {
	var request *http.Request
	if body == nil {
		request = httptest.NewRequest(method, target, nil)
	} else {
		request = httptest.NewRequest(method, target, strings.NewReader(*body))
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set(httpapi.ClientHeader, tabID)
	return request
}

func createAuthenticatedSessionCookie(testingT *testing.T, email string, name string) *http.Cookie {
	testingT.Helper()

	store := session.Store()
	request := httptest.NewRequest(http.MethodGet, "/", nil)
	recorder := httptest.NewRecorder()

	sessionInstance, err := store.Get(request, constants.SessionName)
	require.NoError(testingT, err)

	sessionInstance.Values[constants.SessionKeyUserEmail] = email
	sessionInstance.Values[constants.SessionKeyUserName] = name
	sessionInstance.Values[constants.SessionKeyUserPicture] = ""

	require.NoError(testingT, sessionInstance.Save(request, recorder))

	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == constants.SessionName {
			return cookie
		}
	}
	require.FailNow(testingT, "session cookie not found in recorder")
	return nil
}
