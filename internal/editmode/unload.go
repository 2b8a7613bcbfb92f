package editmode

// UnloadWarning is returned to the browser's beforeunload handler while edit mode is on.
const UnloadWarning = "You are in edit mode. Unsaved changes to the layout will be lost if you leave this page."

// UnloadGuard answers page-unload attempts from the current flag value.
type UnloadGuard struct {
	reader Reader
}

// NewUnloadGuard binds the guard to reader. The value is read on every call.
func NewUnloadGuard(reader Reader) UnloadGuard {
	return UnloadGuard{reader: reader}
}

// Message returns UnloadWarning while edit mode is on and an empty string otherwise.
func (guard UnloadGuard) Message() string {
	if guard.reader == nil || !guard.reader.Enabled() {
		return ""
	}
	return UnloadWarning
}
