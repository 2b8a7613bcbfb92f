package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/temirov/GAuss/pkg/constants"
	"github.com/temirov/GAuss/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarkoPoloResearchLab/homeboard/internal/model"
)

const (
	contextKeyCurrentUser = "httpapi_current_user"
	authErrorUnauthorized = "unauthorized"
	logEventLoadSession   = "load_session"
	logEventPersistUser   = "persist_user"
)

type CurrentUser struct {
	Email      string
	Name       string
	PictureURL string
}

// Initials returns up to two upper-case letters for the avatar fallback.
func (currentUser *CurrentUser) Initials() string {
	source := strings.TrimSpace(currentUser.Name)
	if source == "" {
		source = currentUser.Email
	}
	var initials []rune
	for _, field := range strings.FieldsFunc(source, func(character rune) bool {
		return character == ' ' || character == '.' || character == '@' || character == '-'
	}) {
		initials = append(initials, []rune(strings.ToUpper(field))[0])
		if len(initials) == 2 {
			break
		}
	}
	return string(initials)
}

type AuthManager struct {
	database     *gorm.DB
	logger       *zap.Logger
	sessionStore *sessions.CookieStore
	clock        func() time.Time
}

func NewAuthManager(database *gorm.DB, logger *zap.Logger) *AuthManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthManager{
		database:     database,
		logger:       logger,
		sessionStore: session.Store(),
		clock:        time.Now,
	}
}

func (authManager *AuthManager) RequireAuthenticatedJSON() gin.HandlerFunc {
	return func(context *gin.Context) {
		if _, ok := authManager.ensureUser(context); !ok {
			context.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{jsonKeyError: authErrorUnauthorized})
			return
		}
		context.Next()
	}
}

// RequireAuthenticatedWeb redirects anonymous visitors to the login page and
// records the visit of signed-in users.
func (authManager *AuthManager) RequireAuthenticatedWeb() gin.HandlerFunc {
	return func(context *gin.Context) {
		currentUser, ok := authManager.ensureUser(context)
		if !ok {
			context.Redirect(http.StatusFound, constants.LoginPath)
			context.Abort()
			return
		}
		if persistErr := authManager.persistUser(context.Request.Context(), currentUser); persistErr != nil {
			authManager.logger.Warn(logEventPersistUser, zap.String("email", currentUser.Email), zap.Error(persistErr))
		}
		context.Next()
	}
}

// OptionalUser loads the session user when present and never aborts.
func (authManager *AuthManager) OptionalUser() gin.HandlerFunc {
	return func(context *gin.Context) {
		authManager.ensureUser(context)
		context.Next()
	}
}

func CurrentUserFromContext(context *gin.Context) (*CurrentUser, bool) {
	value, exists := context.Get(contextKeyCurrentUser)
	if !exists {
		return nil, false
	}
	currentUser, ok := value.(*CurrentUser)
	return currentUser, ok
}

func (authManager *AuthManager) ensureUser(context *gin.Context) (*CurrentUser, bool) {
	if currentUser, exists := CurrentUserFromContext(context); exists {
		return currentUser, true
	}
	if authManager.sessionStore == nil {
		return nil, false
	}

	sessionInstance, sessionErr := authManager.sessionStore.Get(context.Request, constants.SessionName)
	if sessionErr != nil {
		authManager.logger.Warn(logEventLoadSession, zap.Error(sessionErr))
		return nil, false
	}

	email := extractString(sessionInstance.Values[constants.SessionKeyUserEmail])
	if email == "" {
		return nil, false
	}

	currentUser := &CurrentUser{
		Email:      strings.ToLower(email),
		Name:       extractString(sessionInstance.Values[constants.SessionKeyUserName]),
		PictureURL: extractString(sessionInstance.Values[constants.SessionKeyUserPicture]),
	}
	context.Set(contextKeyCurrentUser, currentUser)
	return currentUser, true
}

func (authManager *AuthManager) persistUser(ctx context.Context, currentUser *CurrentUser) error {
	if authManager.database == nil {
		return nil
	}
	user := model.User{
		Email:      currentUser.Email,
		Name:       currentUser.Name,
		PictureURL: currentUser.PictureURL,
		LastSeenAt: authManager.clock().UTC(),
	}
	return authManager.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "picture_url", "last_seen_at", "updated_at"}),
	}).Create(&user).Error
}

func extractString(value interface{}) string {
	text, ok := value.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}
