package configs

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
)

const (
	// NameCookie carries the configuration the browser is looking at.
	NameCookie = "config-name"
	// DefaultName is used whenever the cookie is absent or blank.
	DefaultName = "default"

	nameMaxLength = 64
)

// ErrInvalidName indicates a configuration name outside [A-Za-z0-9_-]{1,64}.
var ErrInvalidName = errors.New("configs: invalid configuration name")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ResolveName returns the configuration name selected by the request cookie.
func ResolveName(request *http.Request) string {
	if request == nil {
		return DefaultName
	}
	cookie, cookieErr := request.Cookie(NameCookie)
	if cookieErr != nil {
		return DefaultName
	}
	return NameOrDefault(cookie.Value)
}

// NameOrDefault trims the raw value and falls back to DefaultName when it is blank.
func NameOrDefault(rawName string) string {
	trimmed := strings.TrimSpace(rawName)
	if trimmed == "" {
		return DefaultName
	}
	return trimmed
}

// ValidateName checks that the name can be used as a storage key.
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > nameMaxLength || !namePattern.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}
