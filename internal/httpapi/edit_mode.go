package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/editmode"
	"github.com/MarkoPoloResearchLab/homeboard/internal/hotkey"
	"github.com/MarkoPoloResearchLab/homeboard/internal/notification"
	"github.com/MarkoPoloResearchLab/homeboard/internal/viewport"
)

const (
	editModeControlTemplateName = "edit_mode_control"
	editModeToggleElementID     = "edit-mode-toggle"
	editModeAddElementID        = "edit-mode-add"
	editModeStartLabel          = "Edit layout"
	editModeStopLabel           = "Done editing"
	editModeAddLabel            = "Add element"
	editModeStartIconClass      = "bi bi-pencil-square"
	editModeStopIconClass       = "bi bi-check2-square"
	editModeAddIconClass        = "bi bi-plus-square"

	jsonKeyEnabled      = "enabled"
	jsonKeyUnloadPrompt = "unload_prompt"

	logEventToggleEditMode = "edit_mode_toggled"
	logFieldClient         = "client"
	logFieldEnabled        = "enabled"
	logFieldBreakpoint     = "breakpoint"

	maxToggleBodyBytes = 1 << 20
)

// EditModeConfig wires the edit-mode endpoints.
type EditModeConfig struct {
	Registry         *editmode.Registry
	Center           *notification.Center
	Dispatcher       editmode.Dispatcher
	Recorder         editmode.Recorder
	DocumentationURL string
	Logger           *zap.Logger
}

type EditModeHandlers struct {
	registry         *editmode.Registry
	center           *notification.Center
	dispatcher       editmode.Dispatcher
	recorder         editmode.Recorder
	documentationURL string
	logger           *zap.Logger
	controlTemplate  *template.Template
	binding          hotkey.Binding
}

type toggleRequest struct {
	Configuration *configs.Configuration `json:"configuration"`
}

type editModeControlData struct {
	Enabled         bool
	Compact         bool
	Breakpoint      string
	ToggleElementID string
	AddElementID    string
	ToggleLabel     string
	ToggleIconClass string
	AddLabel        string
	AddIconClass    string
	HotkeyLabel     string
}

func NewEditModeHandlers(config EditModeConfig) *EditModeHandlers {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := config.Registry
	if registry == nil {
		registry = editmode.NewRegistry()
	}
	center := config.Center
	if center == nil {
		center = notification.NewCenter()
	}
	return &EditModeHandlers{
		registry:         registry,
		center:           center,
		dispatcher:       config.Dispatcher,
		recorder:         config.Recorder,
		documentationURL: config.DocumentationURL,
		logger:           logger,
		controlTemplate:  template.Must(template.New(editModeControlTemplateName).Parse(editModeControlTemplateHTML)),
		binding:          hotkey.MustParse(hotkey.ToggleEditMode),
	}
}

// State reports the flag of the calling tab and the prompt its unload guard should show.
func (handlers *EditModeHandlers) State(context *gin.Context) {
	cell := handlers.registry.Cell(ClientIDFromContext(context))
	context.JSON(http.StatusOK, gin.H{
		jsonKeyEnabled:      cell.Enabled(),
		jsonKeyUnloadPrompt: editmode.NewUnloadGuard(cell).Message(),
	})
}

// Toggle flips the flag of the calling tab. The optional body carries the
// configuration the tab is displaying; it is saved when edit mode turns off and
// the caller is signed in.
func (handlers *EditModeHandlers) Toggle(context *gin.Context) {
	request, decodeErr := decodeToggleRequest(context.Request.Body)
	if decodeErr != nil {
		errorValue := errorValueInvalidJSON
		if errors.Is(decodeErr, configs.ErrInvalidConfiguration) || errors.Is(decodeErr, configs.ErrInvalidSchemaVersion) {
			errorValue = errorValueInvalidConfiguration
		}
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValue})
		return
	}

	clientID := ClientIDFromContext(context)
	breakpoint := viewport.Resolve(context.Request)
	configurationName := configs.ResolveName(context.Request)

	var dispatcher editmode.Dispatcher
	if _, signedIn := CurrentUserFromContext(context); signedIn && handlers.dispatcher != nil {
		dispatcher = handlers.dispatcher
	}

	toggle := editmode.NewToggle(editmode.ToggleDependencies{
		Flag:              handlers.registry.Cell(clientID),
		Notifier:          handlers.center.For(clientID),
		Dispatcher:        dispatcher,
		Configuration:     func() *configs.Configuration { return request.Configuration },
		ConfigurationName: func() string { return configurationName },
		Breakpoint:        breakpoint.String(),
		DocumentationURL:  handlers.documentationURL,
		Logger:            handlers.logger,
		Recorder:          handlers.recorder,
	})
	outcome := toggle.Toggle()

	handlers.logger.Debug(logEventToggleEditMode,
		zap.String(logFieldClient, clientID),
		zap.Bool(logFieldEnabled, outcome.Enabled),
		zap.String(logFieldBreakpoint, breakpoint.String()),
	)
	context.JSON(http.StatusOK, outcome)
}

// Control renders the toggle affordance for the calling tab's state and viewport.
func (handlers *EditModeHandlers) Control(context *gin.Context) {
	enabled := handlers.registry.Cell(ClientIDFromContext(context)).Enabled()
	controlHTML, renderErr := handlers.RenderControl(enabled, viewport.Resolve(context.Request))
	if renderErr != nil {
		context.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueRenderFailed})
		return
	}
	context.Data(http.StatusOK, htmlContentType, []byte(controlHTML))
}

// Release drops the flag and notifications of a tab that is going away.
func (handlers *EditModeHandlers) Release(context *gin.Context) {
	clientID := ClientIDFromContext(context)
	if clientID == "" {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueMissingClient})
		return
	}
	handlers.registry.Forget(clientID)
	handlers.center.Forget(clientID)
	context.Status(http.StatusNoContent)
}

// RenderControl returns the compact icon variant below the small breakpoint
// and the labelled button otherwise. The add affordance only appears while enabled.
func (handlers *EditModeHandlers) RenderControl(enabled bool, breakpoint viewport.Breakpoint) (template.HTML, error) {
	data := editModeControlData{
		Enabled:         enabled,
		Compact:         viewport.Compact(breakpoint),
		Breakpoint:      breakpoint.String(),
		ToggleElementID: editModeToggleElementID,
		AddElementID:    editModeAddElementID,
		ToggleLabel:     editModeStartLabel,
		ToggleIconClass: editModeStartIconClass,
		AddLabel:        editModeAddLabel,
		AddIconClass:    editModeAddIconClass,
		HotkeyLabel:     handlers.binding.Label(),
	}
	if enabled {
		data.ToggleLabel = editModeStopLabel
		data.ToggleIconClass = editModeStopIconClass
	}

	var buffer bytes.Buffer
	if err := handlers.controlTemplate.Execute(&buffer, data); err != nil {
		return "", err
	}
	return template.HTML(buffer.String()), nil
}

func decodeToggleRequest(body io.Reader) (toggleRequest, error) {
	var request toggleRequest
	if body == nil {
		return request, nil
	}
	rawBody, readErr := io.ReadAll(io.LimitReader(body, maxToggleBodyBytes))
	if readErr != nil {
		return request, readErr
	}
	if len(bytes.TrimSpace(rawBody)) == 0 {
		return request, nil
	}
	if err := json.Unmarshal(rawBody, &request); err != nil {
		return toggleRequest{}, err
	}
	return request, nil
}
