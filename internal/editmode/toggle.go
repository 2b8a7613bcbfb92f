package editmode

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/metrics"
	"github.com/MarkoPoloResearchLab/homeboard/internal/notification"
)

const (
	// NotificationID keys the warning shown while edit mode is on.
	NotificationID = "toggle-edit-mode"
	// NotificationAutoClose is how long the warning stays up.
	NotificationAutoClose = 10 * time.Second

	notificationColor           = "orange"
	notificationTitle           = "Edit mode enabled"
	notificationMessageTemplate = "Moving or resizing elements only changes the layout for the current screen size (%s). Other screen sizes keep their own layout."
	notificationLinkLabel       = "Read the layout documentation"
	unknownBreakpointLabel      = "unknown"

	logEventSaveSkipped = "edit_mode_save_skipped"
	logFieldConfigName  = "config_name"
	logFieldReason      = "reason"

	skipReasonMissingSchemaVersion = "missing_schema_version"
	skipReasonInvalidName          = "invalid_name"
	skipReasonNoDispatcher         = "no_dispatcher"
)

// Notifier shows and hides notifications for the client that owns the flag.
type Notifier interface {
	Show(record notification.Record)
	Hide(id string)
}

// Dispatcher starts a configuration save without waiting for it.
type Dispatcher interface {
	Dispatch(name string, configuration configs.Configuration)
}

// Recorder counts toggles and skipped saves.
type Recorder interface {
	ObserveToggle(enabled bool)
	ObserveSave(result string)
}

// ToggleDependencies wires a Toggle. A nil Dispatcher means the caller may not
// persist configurations, so leaving edit mode skips the save.
type ToggleDependencies struct {
	Flag              Toggler
	Notifier          Notifier
	Dispatcher        Dispatcher
	Configuration     func() *configs.Configuration
	ConfigurationName func() string
	Breakpoint        string
	DocumentationURL  string
	Logger            *zap.Logger
	Recorder          Recorder
}

// Outcome reports what a toggle did.
type Outcome struct {
	Enabled           bool   `json:"enabled"`
	SaveDispatched    bool   `json:"save_dispatched"`
	NotificationShown bool   `json:"notification_shown"`
	UnloadPrompt      string `json:"unload_prompt"`
}

// Toggle is the edit-mode control.
type Toggle struct {
	dependencies ToggleDependencies
}

// NewToggle constructs a Toggle. Missing optional collaborators are replaced by no-ops.
func NewToggle(dependencies ToggleDependencies) *Toggle {
	if dependencies.Flag == nil {
		dependencies.Flag = &Cell{}
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Configuration == nil {
		dependencies.Configuration = func() *configs.Configuration { return nil }
	}
	if dependencies.ConfigurationName == nil {
		dependencies.ConfigurationName = func() string { return configs.DefaultName }
	}
	return &Toggle{dependencies: dependencies}
}

// Toggle flips the flag, then either saves the configuration (when leaving edit
// mode) or shows the layout warning (when entering it). The flag is flipped even
// when no configuration is available to save.
func (toggle *Toggle) Toggle() Outcome {
	enabled := toggle.dependencies.Flag.Toggle()
	if toggle.dependencies.Recorder != nil {
		toggle.dependencies.Recorder.ObserveToggle(enabled)
	}

	if enabled {
		toggle.showWarning()
		return Outcome{Enabled: true, NotificationShown: true, UnloadPrompt: UnloadWarning}
	}

	return Outcome{Enabled: false, SaveDispatched: toggle.save()}
}

func (toggle *Toggle) save() bool {
	name := toggle.dependencies.ConfigurationName()
	configuration := toggle.dependencies.Configuration()
	switch {
	case !configuration.HasSchemaVersion():
		return toggle.skipSave(name, skipReasonMissingSchemaVersion)
	case configs.ValidateName(name) != nil:
		return toggle.skipSave(name, skipReasonInvalidName)
	case toggle.dependencies.Dispatcher == nil:
		return toggle.skipSave(name, skipReasonNoDispatcher)
	}

	toggle.dependencies.Dispatcher.Dispatch(name, *configuration)
	if toggle.dependencies.Notifier != nil {
		toggle.dependencies.Notifier.Hide(NotificationID)
	}
	return true
}

func (toggle *Toggle) skipSave(name string, reason string) bool {
	toggle.dependencies.Logger.Debug(logEventSaveSkipped,
		zap.String(logFieldConfigName, name),
		zap.String(logFieldReason, reason),
	)
	if toggle.dependencies.Recorder != nil {
		toggle.dependencies.Recorder.ObserveSave(metrics.SaveResultSkipped)
	}
	return false
}

func (toggle *Toggle) showWarning() {
	if toggle.dependencies.Notifier == nil {
		return
	}
	breakpoint := toggle.dependencies.Breakpoint
	if breakpoint == "" {
		breakpoint = unknownBreakpointLabel
	}
	toggle.dependencies.Notifier.Show(notification.Record{
		ID:        NotificationID,
		Title:     notificationTitle,
		Message:   fmt.Sprintf(notificationMessageTemplate, breakpoint),
		Color:     notificationColor,
		LinkURL:   toggle.dependencies.DocumentationURL,
		LinkLabel: notificationLinkLabel,
		AutoClose: NotificationAutoClose,
	})
}
