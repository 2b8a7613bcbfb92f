package main

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/temirov/GAuss/pkg/constants"

	"github.com/MarkoPoloResearchLab/homeboard/internal/auth"
	"github.com/MarkoPoloResearchLab/homeboard/internal/httpapi"
)

const (
	apiRoutePrefix       = "/api"
	apiRoutePreflight    = apiRoutePrefix + "/*path"
	metricsRoute         = "/metrics"
	notificationIDRoute  = httpapi.NotificationsPath + "/:id"
	configurationNameKey = "/:name"
	inviteIDRoute        = "/:id"

	corsHeaderContentType   = "Content-Type"
	corsHeaderViewportWidth = "Viewport-Width"
	corsMaxAge              = 12 * time.Hour
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsAllowedHeaders = []string{corsHeaderContentType, httpapi.ClientHeader, corsHeaderViewportWidth}
	corsExposedHeaders = []string{corsHeaderContentType}
	oauthRoutes        = []string{constants.LoginPath, constants.GoogleAuthPath, constants.CallbackPath, constants.LogoutPath}
)

type routeHandlers struct {
	authManager    *httpapi.AuthManager
	oauth          *auth.Handlers
	board          *httpapi.BoardPageHandlers
	manage         *httpapi.ManagePageHandlers
	editMode       *httpapi.EditModeHandlers
	notifications  *httpapi.NotificationHandlers
	configurations *httpapi.ConfigurationHandlers
	invites        *httpapi.InviteHandlers
	metrics        http.Handler
}

func registerRoutes(router *gin.Engine, serveMode ServeMode, handlers routeHandlers, allowedOrigin string) {
	if serveMode.ServesWeb() {
		registerFrontendRoutes(router, handlers)
	}
	if serveMode.ServesAPI() {
		registerBackendRoutes(router, handlers, newAPICORS(allowedOrigin))
	}
}

func newAPICORS(allowedOrigin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{allowedOrigin},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	})
}

func registerFrontendRoutes(router *gin.Engine, handlers routeHandlers) {
	oauthServeMux := http.NewServeMux()
	handlers.oauth.RegisterRoutes(oauthServeMux)
	oauthHandler := gin.WrapH(oauthServeMux)
	for _, oauthRoute := range oauthRoutes {
		router.GET(oauthRoute, oauthHandler)
	}

	router.GET(httpapi.BoardPagePath, handlers.authManager.OptionalUser(), handlers.board.RenderBoard)
	router.GET(httpapi.ManagePath, handlers.authManager.RequireAuthenticatedWeb(), handlers.manage.RenderHome)
	router.GET(httpapi.ManageUsersPath, handlers.authManager.RequireAuthenticatedWeb(), handlers.manage.RenderUsers)
	router.GET(httpapi.ManageInvitesPath, handlers.authManager.RequireAuthenticatedWeb(), handlers.manage.RenderInvites)
}

func registerBackendRoutes(router *gin.Engine, handlers routeHandlers, apiCORS gin.HandlerFunc) {
	router.GET(metricsRoute, gin.WrapH(handlers.metrics))
	router.OPTIONS(apiRoutePreflight, apiCORS)

	router.GET(httpapi.EditModeStatePath, apiCORS, handlers.editMode.State)
	router.POST(httpapi.EditModeTogglePath, apiCORS, handlers.authManager.OptionalUser(), handlers.editMode.Toggle)
	router.GET(httpapi.EditModeControlPath, apiCORS, handlers.editMode.Control)
	router.POST(httpapi.EditModeReleasePath, apiCORS, handlers.editMode.Release)

	router.GET(httpapi.NotificationsPath, apiCORS, handlers.notifications.List)
	router.GET(httpapi.NotificationEventsPath, apiCORS, handlers.notifications.Stream)
	router.DELETE(notificationIDRoute, apiCORS, handlers.notifications.Dismiss)

	configurationsGroup := router.Group(httpapi.ConfigurationsPath, apiCORS, handlers.authManager.RequireAuthenticatedJSON())
	configurationsGroup.GET("", handlers.configurations.List)
	configurationsGroup.GET(configurationNameKey, handlers.configurations.Get)
	configurationsGroup.PUT(configurationNameKey, handlers.configurations.Put)

	invitesGroup := router.Group(httpapi.InvitesPath, apiCORS, handlers.authManager.RequireAuthenticatedJSON())
	invitesGroup.GET("", handlers.invites.List)
	invitesGroup.POST("", handlers.invites.Create)
	invitesGroup.DELETE(inviteIDRoute, handlers.invites.Delete)
}
