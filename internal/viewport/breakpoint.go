package viewport

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	// HeaderClientHintWidth is the client hint carrying the layout viewport width.
	HeaderClientHintWidth = "Sec-CH-Viewport-Width"
	// HeaderLegacyWidth is the pre-standard spelling of the same hint.
	HeaderLegacyWidth = "Viewport-Width"
	// CookieWidth is written by the page script on load and on resize.
	CookieWidth = "homeboard_viewport"

	maxReportedWidth = 1 << 16
)

// Breakpoint is a named minimum viewport width.
type Breakpoint int

const (
	// Unknown means the client has not reported its width yet.
	Unknown Breakpoint = iota
	Base
	XS
	SM
	MD
	LG
	XL
)

type breakpointDefinition struct {
	breakpoint Breakpoint
	name       string
	minWidth   int
}

// Ordered from the widest down so resolution picks the first match.
var breakpointDefinitions = []breakpointDefinition{
	{breakpoint: XL, name: "xl", minWidth: 1400},
	{breakpoint: LG, name: "lg", minWidth: 1200},
	{breakpoint: MD, name: "md", minWidth: 992},
	{breakpoint: SM, name: "sm", minWidth: 768},
	{breakpoint: XS, name: "xs", minWidth: 576},
	{breakpoint: Base, name: "base", minWidth: 0},
}

// String returns the breakpoint name, "unknown" for the sentinel.
func (breakpoint Breakpoint) String() string {
	for _, definition := range breakpointDefinitions {
		if definition.breakpoint == breakpoint {
			return definition.name
		}
	}
	return "unknown"
}

// SmallerThan reports whether a known breakpoint lies below threshold. Unknown is never smaller.
func (breakpoint Breakpoint) SmallerThan(threshold Breakpoint) bool {
	if breakpoint == Unknown {
		return false
	}
	return breakpoint < threshold
}

// Compact reports whether controls should render icon-only.
func Compact(breakpoint Breakpoint) bool {
	return breakpoint.SmallerThan(SM)
}

// FromWidth resolves a pixel width. Negative widths are Unknown.
func FromWidth(width int) Breakpoint {
	if width < 0 {
		return Unknown
	}
	for _, definition := range breakpointDefinitions {
		if width >= definition.minWidth {
			return definition.breakpoint
		}
	}
	return Unknown
}

// Resolve reads the viewport width reported by the request.
func Resolve(request *http.Request) Breakpoint {
	if request == nil {
		return Unknown
	}
	for _, headerName := range []string{HeaderClientHintWidth, HeaderLegacyWidth} {
		if width, ok := parseWidth(request.Header.Get(headerName)); ok {
			return FromWidth(width)
		}
	}
	if cookie, cookieErr := request.Cookie(CookieWidth); cookieErr == nil {
		if width, ok := parseWidth(cookie.Value); ok {
			return FromWidth(width)
		}
	}
	return Unknown
}

// parseWidth accepts integer and fractional pixel widths. Widths beyond
// maxReportedWidth are clamped so the float conversion stays in range.
func parseWidth(rawValue string) (int, bool) {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return 0, false
	}
	if value, parseErr := strconv.Atoi(trimmed); parseErr == nil {
		return min(value, maxReportedWidth), value >= 0
	}
	value, parseErr := strconv.ParseFloat(trimmed, 64)
	if parseErr != nil && !errors.Is(parseErr, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(value) || value < 0 {
		return 0, false
	}
	if value > maxReportedWidth {
		return maxReportedWidth, true
	}
	return int(value), true
}
