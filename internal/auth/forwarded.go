package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	headerForwarded        = "Forwarded"
	headerXForwardedProto  = "X-Forwarded-Proto"
	headerXForwardedScheme = "X-Forwarded-Scheme"
	headerXForwardedHost   = "X-Forwarded-Host"
	headerXForwardedPort   = "X-Forwarded-Port"
	forwardedProtoPrefix   = "proto="
	forwardedHostPrefix    = "host="
	headerValueSeparator   = ","
	forwardedPairSeparator = ";"
	urlSchemeHTTPS         = "https"
)

// publicBaseURLForRequest rebuilds the externally visible base URL of request,
// honouring reverse proxy headers, on top of the configured base path.
func publicBaseURLForRequest(configuredBaseURL *url.URL, request *http.Request) (string, error) {
	host := requestHost(configuredBaseURL, request)
	if host == "" {
		return "", fmt.Errorf("%s: %w", resolveBaseURLError, errEmptyRequestHost)
	}

	if port := firstHeaderValue(request.Header.Get(headerXForwardedPort)); port != "" && !strings.Contains(host, ":") {
		host = host + ":" + port
	}

	baseCopy := *configuredBaseURL
	baseCopy.Scheme = requestScheme(configuredBaseURL, request)
	baseCopy.Host = host
	return baseCopy.String(), nil
}

func requestScheme(configuredBaseURL *url.URL, request *http.Request) string {
	candidates := []string{
		forwardedDirective(request.Header.Get(headerForwarded), forwardedProtoPrefix),
		firstHeaderValue(request.Header.Get(headerXForwardedProto)),
		firstHeaderValue(request.Header.Get(headerXForwardedScheme)),
	}
	for _, candidate := range candidates {
		if candidate != "" {
			return strings.ToLower(candidate)
		}
	}
	if request.TLS != nil {
		return urlSchemeHTTPS
	}
	if request.URL != nil && request.URL.Scheme != "" {
		return strings.ToLower(request.URL.Scheme)
	}
	if configuredBaseURL.Scheme != "" {
		return strings.ToLower(configuredBaseURL.Scheme)
	}
	return urlSchemeHTTPS
}

func requestHost(configuredBaseURL *url.URL, request *http.Request) string {
	if forwardedHost := forwardedDirective(request.Header.Get(headerForwarded), forwardedHostPrefix); forwardedHost != "" {
		return forwardedHost
	}
	if hostHeader := firstHeaderValue(request.Header.Get(headerXForwardedHost)); hostHeader != "" {
		return hostHeader
	}
	if request.Host != "" {
		return request.Host
	}
	return configuredBaseURL.Host
}

func firstHeaderValue(rawValue string) string {
	for _, segment := range strings.Split(rawValue, headerValueSeparator) {
		if trimmedSegment := strings.TrimSpace(segment); trimmedSegment != "" {
			return trimmedSegment
		}
	}
	return ""
}

// forwardedDirective extracts the first non-empty value of prefix from an RFC 7239 Forwarded header.
func forwardedDirective(headerValue string, prefix string) string {
	for _, element := range strings.Split(headerValue, headerValueSeparator) {
		for _, pair := range strings.Split(element, forwardedPairSeparator) {
			trimmedPair := strings.TrimSpace(pair)
			if !strings.HasPrefix(strings.ToLower(trimmedPair), prefix) {
				continue
			}
			if value := strings.Trim(strings.TrimSpace(trimmedPair[len(prefix):]), "\""); value != "" {
				return value
			}
		}
	}
	return ""
}
