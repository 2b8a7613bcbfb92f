package httpapi

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/model"
)

const (
	manageHomeTemplateName    = "manage_home"
	manageUsersTemplateName   = "manage_users"
	manageInvitesTemplateName = "manage_invites"

	manageHomeTitle    = "Manage"
	manageUsersTitle   = "Users"
	manageInvitesTitle = "Invites"

	manageTimeLayout = "2006-01-02 15:04 MST"

	logEventManageQuery = "manage_query_failed"

	// InvitesPath is the invites API used by the invites page.
	InvitesPath = "/api/invites"
)

const manageInvitesScript template.HTML = `<script>
(function () {
  "use strict";
  var container = document.getElementById("invites");
  if (!container) {
    return;
  }
  var invitesURL = container.dataset.invitesUrl;
  function send(method, url) {
    return fetch(url, { method: method, credentials: "same-origin" }).then(function () {
      window.location.reload();
    });
  }
  container.addEventListener("click", function (event) {
    var createButton = event.target.closest("#invite-create");
    if (createButton) {
      send("POST", invitesURL);
      return;
    }
    var deleteButton = event.target.closest("[data-invite-id]");
    if (deleteButton) {
      send("DELETE", invitesURL + "/" + encodeURIComponent(deleteButton.dataset.inviteId));
    }
  });
})();
</script>`

// ConfigurationLister lists stored configurations.
type ConfigurationLister interface {
	List(ctx context.Context) ([]configs.Summary, error)
}

type ManagePageHandlers struct {
	shell           *ShellRenderer
	database        *gorm.DB
	configurations  ConfigurationLister
	logger          *zap.Logger
	clock           func() time.Time
	homeTemplate    *template.Template
	usersTemplate   *template.Template
	invitesTemplate *template.Template
}

type manageConfigurationRow struct {
	Name          string
	SchemaVersion string
	Revision      int64
	UpdatedAt     string
}

type manageHomeData struct {
	Configurations []manageConfigurationRow
	UserCount      int64
	InviteCount    int64
	UsersPath      string
	InvitesPath    string
}

type manageUserRow struct {
	Email      string
	Name       string
	LastSeenAt string
}

type manageUsersData struct {
	Users []manageUserRow
}

type manageInviteRow struct {
	ID           string
	Token        string
	CreatorEmail string
	ExpiresAt    string
	Expired      bool
}

type manageInvitesData struct {
	Invites    []manageInviteRow
	InvitesURL string
}

func NewManagePageHandlers(shell *ShellRenderer, database *gorm.DB, configurations ConfigurationLister, logger *zap.Logger) *ManagePageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManagePageHandlers{
		shell:           shell,
		database:        database,
		configurations:  configurations,
		logger:          logger,
		clock:           time.Now,
		homeTemplate:    template.Must(template.New(manageHomeTemplateName).Parse(manageHomeTemplateHTML)),
		usersTemplate:   template.Must(template.New(manageUsersTemplateName).Parse(manageUsersTemplateHTML)),
		invitesTemplate: template.Must(template.New(manageInvitesTemplateName).Parse(manageInvitesTemplateHTML)),
	}
}

func (handlers *ManagePageHandlers) RenderHome(context *gin.Context) {
	requestContext := context.Request.Context()
	data := manageHomeData{UsersPath: ManageUsersPath, InvitesPath: ManageInvitesPath}

	summaries, listErr := handlers.configurations.List(requestContext)
	if listErr != nil {
		handlers.logger.Warn(logEventManageQuery, zap.Error(listErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	for _, summary := range summaries {
		row := manageConfigurationRow{
			Name:      summary.Name,
			Revision:  summary.Revision,
			UpdatedAt: summary.UpdatedAt.UTC().Format(manageTimeLayout),
		}
		if summary.SchemaVersion != nil {
			row.SchemaVersion = formatSchemaVersion(*summary.SchemaVersion)
		}
		data.Configurations = append(data.Configurations, row)
	}

	database := handlers.database.WithContext(requestContext)
	if countErr := database.Model(&model.User{}).Count(&data.UserCount).Error; countErr != nil {
		handlers.logger.Warn(logEventManageQuery, zap.Error(countErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	if countErr := database.Model(&model.Invite{}).Where("expires_at > ?", handlers.clock().UTC()).Count(&data.InviteCount).Error; countErr != nil {
		handlers.logger.Warn(logEventManageQuery, zap.Error(countErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}

	handlers.render(context, handlers.homeTemplate, data, manageHomeTitle, SectionHome, "")
}

func (handlers *ManagePageHandlers) RenderUsers(context *gin.Context) {
	var users []model.User
	if err := handlers.database.WithContext(context.Request.Context()).Order("last_seen_at desc").Find(&users).Error; err != nil {
		handlers.logger.Warn(logEventManageQuery, zap.Error(err))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	data := manageUsersData{Users: make([]manageUserRow, 0, len(users))}
	for _, user := range users {
		data.Users = append(data.Users, manageUserRow{
			Email:      user.Email,
			Name:       user.Name,
			LastSeenAt: user.LastSeenAt.UTC().Format(manageTimeLayout),
		})
	}
	handlers.render(context, handlers.usersTemplate, data, manageUsersTitle, SectionUsers, "")
}

func (handlers *ManagePageHandlers) RenderInvites(context *gin.Context) {
	invites, listErr := listInvites(handlers.database.WithContext(context.Request.Context()))
	if listErr != nil {
		handlers.logger.Warn(logEventManageQuery, zap.Error(listErr))
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	now := handlers.clock()
	data := manageInvitesData{Invites: make([]manageInviteRow, 0, len(invites)), InvitesURL: InvitesPath}
	for _, invite := range invites {
		data.Invites = append(data.Invites, manageInviteRow{
			ID:           invite.ID,
			Token:        invite.Token,
			CreatorEmail: invite.CreatorEmail,
			ExpiresAt:    invite.ExpiresAt.UTC().Format(manageTimeLayout),
			Expired:      invite.Expired(now),
		})
	}
	handlers.render(context, handlers.invitesTemplate, data, manageInvitesTitle, SectionInvites, manageInvitesScript)
}

func (handlers *ManagePageHandlers) render(context *gin.Context, contentTemplate *template.Template, data any, title string, section Section, scripts template.HTML) {
	var contentBuffer bytes.Buffer
	if err := contentTemplate.Execute(&contentBuffer, data); err != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}
	currentUser, _ := CurrentUserFromContext(context)
	page, renderErr := handlers.shell.Render(ShellData{
		Title:       title,
		Section:     section,
		CurrentUser: currentUser,
		Content:     template.HTML(contentBuffer.String()),
		Scripts:     scripts,
	})
	if renderErr != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}
	context.Data(http.StatusOK, htmlContentType, page)
}

func formatSchemaVersion(version int) string {
	return "v" + strconv.Itoa(version)
}
