package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/editmode"
	"github.com/MarkoPoloResearchLab/homeboard/internal/hotkey"
	"github.com/MarkoPoloResearchLab/homeboard/internal/viewport"
)

const (
	BoardPagePath = "/"

	boardTemplateName       = "board"
	boardScriptTemplateName = "board_script"
	boardPageTitle          = "Dashboard"
	boardHeadingPrefix      = "Dashboard: "
	boardEmptyMessage       = "This dashboard has no saved layout yet."
	boardControlSlotID      = "edit-mode-control-slot"
	boardConfigurationID    = "board-configuration"
	boardAddElementEvent    = "homeboard:add-element"

	// Open pages report in often enough that their tab state never idles out.
	boardStateRefreshInterval = editmode.IdleTimeout / 3

	// API routes the page script talks to.
	EditModeStatePath      = "/api/edit-mode"
	EditModeTogglePath     = "/api/edit-mode/toggle"
	EditModeControlPath    = "/api/edit-mode/control"
	EditModeReleasePath    = "/api/edit-mode/release"
	NotificationsPath      = "/api/notifications"
	NotificationEventsPath = "/api/notifications/events"

	logEventLoadBoard = "load_board_configuration_failed"
)

// ConfigurationLoader reads a stored configuration.
type ConfigurationLoader interface {
	Load(ctx context.Context, name string) (configs.Configuration, error)
}

type BoardPageHandlers struct {
	shell          *ShellRenderer
	editMode       *EditModeHandlers
	loader         ConfigurationLoader
	logger         *zap.Logger
	template       *template.Template
	scriptTemplate *template.Template
	binding        hotkey.Binding
}

type boardTemplateData struct {
	ConfigName             string
	Heading                string
	EmptyMessage           string
	ControlSlotID          string
	ControlHTML            template.HTML
	HasConfiguration       bool
	SchemaVersion          string
	ConfigurationElementID string
	ConfigurationJSON      template.JS
}

type boardScriptData struct {
	TabID                  string
	ClientHeader           string
	ClientQueryParameter   string
	StateURL               string
	ToggleURL              string
	ControlURL             string
	ReleaseURL             string
	NotificationsURL       string
	EventsURL              string
	ViewportCookie         string
	ViewportHeader         string
	HotkeyModifier         string
	HotkeyKey              string
	ControlSlotID          string
	ConfigurationElementID string
	ToggleElementID        string
	AddElementID           string
	AddElementEvent        string
	StateRefreshMillis     int64
}

func NewBoardPageHandlers(shell *ShellRenderer, editMode *EditModeHandlers, loader ConfigurationLoader, logger *zap.Logger) *BoardPageHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardPageHandlers{
		shell:          shell,
		editMode:       editMode,
		loader:         loader,
		logger:         logger,
		template:       template.Must(template.New(boardTemplateName).Parse(boardTemplateHTML)),
		scriptTemplate: template.Must(template.New(boardScriptTemplateName).Parse(boardScriptTemplateHTML)),
		binding:        hotkey.MustParse(hotkey.ToggleEditMode),
	}
}

// RenderBoard serves the dashboard selected by the config-name cookie. Every
// page load is a new tab, so edit mode starts off.
func (handlers *BoardPageHandlers) RenderBoard(context *gin.Context) {
	configurationName := configs.ResolveName(context.Request)
	configuration, hasConfiguration := handlers.loadConfiguration(context.Request.Context(), configurationName)

	controlHTML, controlErr := handlers.editMode.RenderControl(false, viewport.Resolve(context.Request))
	if controlErr != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}

	configurationJSON, encodeErr := embeddableJSON(configuration, hasConfiguration)
	if encodeErr != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}

	content := boardTemplateData{
		ConfigName:             configurationName,
		Heading:                boardHeadingPrefix + configurationName,
		EmptyMessage:           boardEmptyMessage,
		ControlSlotID:          boardControlSlotID,
		ControlHTML:            controlHTML,
		HasConfiguration:       hasConfiguration,
		ConfigurationElementID: boardConfigurationID,
		ConfigurationJSON:      configurationJSON,
	}
	if configuration.SchemaVersion != nil {
		content.SchemaVersion = strconv.Itoa(*configuration.SchemaVersion)
	}

	script := boardScriptData{
		TabID:                  uuid.NewString(),
		ClientHeader:           ClientHeader,
		ClientQueryParameter:   ClientQueryParameter,
		StateURL:               EditModeStatePath,
		ToggleURL:              EditModeTogglePath,
		ControlURL:             EditModeControlPath,
		ReleaseURL:             EditModeReleasePath,
		NotificationsURL:       NotificationsPath,
		EventsURL:              NotificationEventsPath,
		ViewportCookie:         viewport.CookieWidth,
		ViewportHeader:         viewport.HeaderLegacyWidth,
		HotkeyModifier:         handlers.binding.Modifier,
		HotkeyKey:              handlers.binding.Key,
		ControlSlotID:          boardControlSlotID,
		ConfigurationElementID: boardConfigurationID,
		ToggleElementID:        editModeToggleElementID,
		AddElementID:           editModeAddElementID,
		AddElementEvent:        boardAddElementEvent,
		StateRefreshMillis:     boardStateRefreshInterval.Milliseconds(),
	}

	var contentBuffer bytes.Buffer
	if err := handlers.template.Execute(&contentBuffer, content); err != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}
	var scriptBuffer bytes.Buffer
	if err := handlers.scriptTemplate.Execute(&scriptBuffer, script); err != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}

	currentUser, _ := CurrentUserFromContext(context)
	page, renderErr := handlers.shell.Render(ShellData{
		Title:       boardPageTitle,
		Section:     SectionBoard,
		CurrentUser: currentUser,
		Content:     template.HTML(contentBuffer.String()),
		Scripts:     template.HTML(scriptBuffer.String()),
	})
	if renderErr != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}
	context.Data(http.StatusOK, htmlContentType, page)
}

func (handlers *BoardPageHandlers) loadConfiguration(ctx context.Context, name string) (configs.Configuration, bool) {
	if handlers.loader == nil {
		return configs.Configuration{}, false
	}
	configuration, loadErr := handlers.loader.Load(ctx, name)
	if loadErr != nil {
		if !errors.Is(loadErr, configs.ErrConfigurationNotFound) {
			handlers.logger.Warn(logEventLoadBoard, zap.String(logFieldConfigName, name), zap.Error(loadErr))
		}
		return configs.Configuration{}, false
	}
	return configuration, true
}

// embeddableJSON escapes the document for a script element.
func embeddableJSON(configuration configs.Configuration, present bool) (template.JS, error) {
	if !present || len(configuration.Payload) == 0 {
		return template.JS("null"), nil
	}
	var buffer bytes.Buffer
	if err := json.Compact(&buffer, configuration.Payload); err != nil {
		return "", err
	}
	var escaped bytes.Buffer
	json.HTMLEscape(&escaped, buffer.Bytes())
	return template.JS(escaped.String()), nil
}
