package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temirov/GAuss/pkg/constants"
	"github.com/temirov/GAuss/pkg/gauss"
	"go.uber.org/zap"
)

const (
	logEventResolveHandlers = "resolve_oauth_handlers"
	createServiceError      = "create oauth service"
	createHandlersError     = "create oauth handlers"
	parseBaseURLError       = "parse public base url"
	resolveBaseURLError     = "resolve request base url"
)

var errEmptyRequestHost = errors.New("empty host")

// Config captures dependencies for building OAuth handlers.
type Config struct {
	GoogleClientID     string
	GoogleClientSecret string
	PublicBaseURL      string
	LocalRedirectPath  string
	Scopes             []string
	LoginTemplate      string
	Logger             *zap.Logger
}

// Handlers serves login, callback and sign-out. Google redirects back to the
// host the browser used, so one GAuss handler set is kept per public base URL.
type Handlers struct {
	configuration     Config
	configuredBaseURL *url.URL
	defaultHandlers   *gauss.Handlers
	defaultServeMux   *http.ServeMux
	handlerCache      map[string]*gauss.Handlers
	handlerCacheMutex sync.RWMutex
	logger            *zap.Logger
}

// NewHandlers constructs Handlers for the configured public base URL.
func NewHandlers(configuration Config) (*Handlers, error) {
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	baseURL, parseErr := url.Parse(configuration.PublicBaseURL)
	if parseErr != nil {
		return nil, fmt.Errorf("%s: %w", parseBaseURLError, parseErr)
	}

	defaultHandlers, buildErr := buildGaussHandlers(configuration, configuration.PublicBaseURL)
	if buildErr != nil {
		return nil, buildErr
	}

	defaultServeMux := http.NewServeMux()
	defaultHandlers.RegisterRoutes(defaultServeMux)

	return &Handlers{
		configuration:     configuration,
		configuredBaseURL: baseURL,
		defaultHandlers:   defaultHandlers,
		defaultServeMux:   defaultServeMux,
		handlerCache:      make(map[string]*gauss.Handlers),
		logger:            logger,
	}, nil
}

// RegisterRoutes wires the login, OAuth and sign-out endpoints to mux.
func (handlers *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(constants.LoginPath, handlers.defaultServeMux.ServeHTTP)
	mux.HandleFunc(constants.GoogleAuthPath, handlers.handleGoogleAuth)
	mux.HandleFunc(constants.CallbackPath, handlers.handleCallback)
	mux.HandleFunc(constants.LogoutPath, handlers.SignOut)
}

// SignOut clears the session and redirects to the login page.
func (handlers *Handlers) SignOut(responseWriter http.ResponseWriter, request *http.Request) {
	handlers.defaultHandlers.Logout(responseWriter, request)
}

func (handlers *Handlers) handleGoogleAuth(responseWriter http.ResponseWriter, request *http.Request) {
	requestHandlers, resolutionErr := handlers.handlersForRequest(request)
	if resolutionErr != nil {
		handlers.respondResolutionFailure(responseWriter, resolutionErr)
		return
	}
	requestHandlers.Login(responseWriter, request)
}

func (handlers *Handlers) handleCallback(responseWriter http.ResponseWriter, request *http.Request) {
	requestHandlers, resolutionErr := handlers.handlersForRequest(request)
	if resolutionErr != nil {
		handlers.respondResolutionFailure(responseWriter, resolutionErr)
		return
	}
	requestHandlers.Callback(responseWriter, request)
}

func (handlers *Handlers) respondResolutionFailure(responseWriter http.ResponseWriter, resolutionErr error) {
	handlers.logger.Warn(logEventResolveHandlers, zap.Error(resolutionErr))
	http.Error(responseWriter, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (handlers *Handlers) handlersForRequest(request *http.Request) (*gauss.Handlers, error) {
	baseURL, baseErr := publicBaseURLForRequest(handlers.configuredBaseURL, request)
	if baseErr != nil {
		return nil, baseErr
	}

	handlers.handlerCacheMutex.RLock()
	cachedHandlers := handlers.handlerCache[baseURL]
	handlers.handlerCacheMutex.RUnlock()
	if cachedHandlers != nil {
		return cachedHandlers, nil
	}

	handlers.handlerCacheMutex.Lock()
	defer handlers.handlerCacheMutex.Unlock()
	if cachedHandlers = handlers.handlerCache[baseURL]; cachedHandlers != nil {
		return cachedHandlers, nil
	}

	builtHandlers, buildErr := buildGaussHandlers(handlers.configuration, baseURL)
	if buildErr != nil {
		return nil, buildErr
	}
	handlers.handlerCache[baseURL] = builtHandlers
	return builtHandlers, nil
}

func buildGaussHandlers(configuration Config, baseURL string) (*gauss.Handlers, error) {
	serviceInstance, serviceErr := gauss.NewService(
		configuration.GoogleClientID,
		configuration.GoogleClientSecret,
		baseURL,
		configuration.LocalRedirectPath,
		configuration.Scopes,
		configuration.LoginTemplate,
	)
	if serviceErr != nil {
		return nil, fmt.Errorf("%s: %w", createServiceError, serviceErr)
	}

	gaussHandlers, handlersErr := gauss.NewHandlers(serviceInstance)
	if handlersErr != nil {
		return nil, fmt.Errorf("%s: %w", createHandlersError, handlersErr)
	}
	return gaussHandlers, nil
}
