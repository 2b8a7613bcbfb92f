package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/temirov/GAuss/pkg/gauss"
	"github.com/temirov/GAuss/pkg/session"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/homeboard/internal/auth"
	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
	"github.com/MarkoPoloResearchLab/homeboard/internal/editmode"
	"github.com/MarkoPoloResearchLab/homeboard/internal/httpapi"
	"github.com/MarkoPoloResearchLab/homeboard/internal/metrics"
	"github.com/MarkoPoloResearchLab/homeboard/internal/notification"
	"github.com/MarkoPoloResearchLab/homeboard/internal/packageinfo"
	"github.com/MarkoPoloResearchLab/homeboard/internal/storage"
	"github.com/MarkoPoloResearchLab/homeboard/internal/task"
)

const (
	commandUseName               = "server"
	commandShortDescription      = "Run the homeboard server"
	commandLongDescription       = "Launch the homeboard dashboard and admin HTTP server"
	missingConfigurationMessage  = "missing required configuration"
	loggerCreationErrorMessage   = "logger"
	unexpectedArgumentsMessage   = "unexpected command arguments"
	commandInitializationFailure = "failed to configure command"
	flagNotDefinedMessage        = "flag %s not defined"
	environmentConfigurationErr  = "failed to apply environment configuration"
	shellRendererErrorMessage    = "shell renderer"
	oauthHandlersErrorMessage    = "oauth handlers"

	flagNameApplicationAddress     = "app-addr"
	flagNameDatabaseDriverName     = "db-driver"
	flagNameDatabaseDataSourceName = "db-dsn"
	flagNameSessionSecret          = "session-secret"
	flagNameGoogleClientID         = "google-client-id"
	flagNameGoogleClientSecret     = "google-client-secret"
	flagNamePublicBaseURL          = "public-base-url"
	flagNameServeMode              = "serve-mode"
	flagNamePackageVersion         = "package-version"
	flagNameDocumentationURL       = "docs-url"
	flagNameIssuesURL              = "issues-url"
	flagNameCommunityURL           = "community-url"
	flagNameContributeURL          = "contribute-url"
	flagNameAllowedOrigin          = "allowed-origin"

	environmentKeyApplicationAddress = "APP_ADDR"
	environmentKeyDatabaseDriverName = "DB_DRIVER"
	environmentKeyDatabaseDataSource = "DB_DSN"
	environmentKeySessionSecret      = "SESSION_SECRET"
	environmentKeyGoogleClientID     = "GOOGLE_CLIENT_ID"
	environmentKeyGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	environmentKeyPublicBaseURL      = "PUBLIC_BASE_URL"
	environmentKeyServeMode          = "SERVE_MODE"
	environmentKeyPackageVersion     = "PACKAGE_VERSION"
	environmentKeyDocumentationURL   = "DOCS_URL"
	environmentKeyIssuesURL          = "ISSUES_URL"
	environmentKeyCommunityURL       = "COMMUNITY_URL"
	environmentKeyContributeURL      = "CONTRIBUTE_URL"
	environmentKeyAllowedOrigin      = "ALLOWED_ORIGIN"

	defaultApplicationAddress = ":8080"
	defaultDatabaseDriverName = storage.DriverNameSQLite
	defaultDocumentationURL   = "https://github.com/MarkoPoloResearchLab/homeboard#readme"
	defaultIssuesURL          = "https://github.com/MarkoPoloResearchLab/homeboard/issues"

	logEventListening         = "listening"
	logEventShuttingDown      = "shutting_down"
	logFieldAddress           = "addr"
	logFieldServeMode         = "serve_mode"
	loggerContextOpenDatabase = "open_db"
	loggerContextAutoMigrate  = "migrate"
	loggerContextServer       = "server"
	loggerContextShutdown     = "shutdown"
	logEventTabsExpired       = "edit_mode_tabs_expired"
	logFieldExpiredTabs       = "expired"
	logFieldTrackedTabs       = "tracked"

	tabStateSweepJobName     = "tab_state_sweep"
	tabStateSweepPeriod      = time.Second
	readHeaderTimeoutSeconds = 5
	shutdownTimeout          = 10 * time.Second
)

type configurationFlag struct {
	environmentKey string
	flagName       string
	defaultValue   string
	usage          string
}

var configurationFlags = []configurationFlag{
	{environmentKeyApplicationAddress, flagNameApplicationAddress, defaultApplicationAddress, "address for the HTTP server to listen on"},
	{environmentKeyDatabaseDriverName, flagNameDatabaseDriverName, defaultDatabaseDriverName, "database driver name"},
	{environmentKeyDatabaseDataSource, flagNameDatabaseDataSourceName, "", "database data source name"},
	{environmentKeySessionSecret, flagNameSessionSecret, "", "secret used to sign session cookies"},
	{environmentKeyGoogleClientID, flagNameGoogleClientID, "", "Google OAuth client id"},
	{environmentKeyGoogleClientSecret, flagNameGoogleClientSecret, "", "Google OAuth client secret"},
	{environmentKeyPublicBaseURL, flagNamePublicBaseURL, "", "public base URL used for OAuth redirects"},
	{environmentKeyServeMode, flagNameServeMode, string(ServeModeMonolith), "route groups to serve: monolith, web or api"},
	{environmentKeyPackageVersion, flagNamePackageVersion, "", "version shown in the footer (defaults to the module version)"},
	{environmentKeyDocumentationURL, flagNameDocumentationURL, defaultDocumentationURL, "documentation link used by the navbar and edit mode notice"},
	{environmentKeyIssuesURL, flagNameIssuesURL, defaultIssuesURL, "issue tracker link"},
	{environmentKeyCommunityURL, flagNameCommunityURL, "", "community link"},
	{environmentKeyContributeURL, flagNameContributeURL, "", "contribution guide link"},
	{environmentKeyAllowedOrigin, flagNameAllowedOrigin, "", "origin allowed to call the API with credentials (defaults to the public base URL)"},
}

var requiredFlagNames = []string{
	flagNameDatabaseDataSourceName,
	flagNameSessionSecret,
	flagNameGoogleClientID,
	flagNameGoogleClientSecret,
	flagNamePublicBaseURL,
}

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string
	DatabaseDriverName     string
	DatabaseDataSourceName string
	SessionSecret          string
	GoogleClientID         string
	GoogleClientSecret     string
	PublicBaseURL          string
	ServeMode              string
	PackageVersion         string
	DocumentationURL       string
	IssuesURL              string
	CommunityURL           string
	ContributeURL          string
	AllowedOrigin          string
}

// DatabaseOpener opens a database connection.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	for _, definition := range configurationFlags {
		application.configurationLoader.SetDefault(definition.environmentKey, definition.defaultValue)
	}
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	for _, definition := range configurationFlags {
		commandFlags.String(definition.flagName, definition.defaultValue, definition.usage)
	}

	for _, definition := range configurationFlags {
		if bindErr := application.bindFlag(commandFlags, definition.environmentKey, definition.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, definition.environmentKey, definition.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	for _, flagName := range requiredFlagNames {
		if markErr := command.MarkFlagRequired(flagName); markErr != nil {
			return markErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationErr, setErr)
	}

	return nil
}

func (application *ServerApplication) loadServerConfig() ServerConfig {
	loader := application.configurationLoader
	readString := func(environmentKey string) string {
		return strings.TrimSpace(loader.GetString(environmentKey))
	}

	serverConfig := ServerConfig{
		ApplicationAddress:     readString(environmentKeyApplicationAddress),
		DatabaseDriverName:     readString(environmentKeyDatabaseDriverName),
		DatabaseDataSourceName: readString(environmentKeyDatabaseDataSource),
		SessionSecret:          readString(environmentKeySessionSecret),
		GoogleClientID:         readString(environmentKeyGoogleClientID),
		GoogleClientSecret:     readString(environmentKeyGoogleClientSecret),
		PublicBaseURL:          strings.TrimRight(readString(environmentKeyPublicBaseURL), "/"),
		ServeMode:              readString(environmentKeyServeMode),
		PackageVersion:         readString(environmentKeyPackageVersion),
		DocumentationURL:       readString(environmentKeyDocumentationURL),
		IssuesURL:              readString(environmentKeyIssuesURL),
		CommunityURL:           readString(environmentKeyCommunityURL),
		ContributeURL:          readString(environmentKeyContributeURL),
		AllowedOrigin:          strings.TrimRight(readString(environmentKeyAllowedOrigin), "/"),
	}
	if serverConfig.AllowedOrigin == "" {
		serverConfig.AllowedOrigin = serverConfig.PublicBaseURL
	}
	return serverConfig
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadServerConfig()
	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	serveMode, serveModeErr := ParseServeMode(serverConfig.ServeMode)
	if serveModeErr != nil {
		return serveModeErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	session.NewSession([]byte(serverConfig.SessionSecret))

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     serverConfig.DatabaseDriverName,
		DataSourceName: serverConfig.DatabaseDataSourceName,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	collector := metrics.NewCollector()
	broadcaster := notification.NewBroadcaster()
	center := notification.NewCenter(
		notification.WithPublisher(broadcaster),
		notification.WithRecorder(collector),
	)
	repository := configs.NewRepository(database)
	asyncSaver := configs.NewAsyncSaver(repository, logger, collector)

	packageAttributes := packageinfo.Load(serverConfig.PackageVersion)
	shell, shellErr := httpapi.NewShellRenderer(httpapi.ShellConfig{
		DocumentationURL: serverConfig.DocumentationURL,
		IssuesURL:        serverConfig.IssuesURL,
		CommunityURL:     serverConfig.CommunityURL,
		ContributeURL:    serverConfig.ContributeURL,
		PackageVersion:   packageAttributes.PackageVersion,
	})
	if shellErr != nil {
		return fmt.Errorf("%s: %w", shellRendererErrorMessage, shellErr)
	}

	oauthHandlers, oauthErr := auth.NewHandlers(auth.Config{
		GoogleClientID:     serverConfig.GoogleClientID,
		GoogleClientSecret: serverConfig.GoogleClientSecret,
		PublicBaseURL:      serverConfig.PublicBaseURL,
		LocalRedirectPath:  httpapi.ManagePath,
		Scopes:             gauss.ScopeStrings(gauss.DefaultScopes),
		Logger:             logger,
	})
	if oauthErr != nil {
		return fmt.Errorf("%s: %w", oauthHandlersErrorMessage, oauthErr)
	}

	editModeRegistry := editmode.NewRegistry()
	editModeHandlers := httpapi.NewEditModeHandlers(httpapi.EditModeConfig{
		Registry:         editModeRegistry,
		Center:           center,
		Dispatcher:       asyncSaver,
		Recorder:         collector,
		DocumentationURL: serverConfig.DocumentationURL,
		Logger:           logger,
	})

	handlers := routeHandlers{
		authManager:    httpapi.NewAuthManager(database, logger),
		oauth:          oauthHandlers,
		board:          httpapi.NewBoardPageHandlers(shell, editModeHandlers, repository, logger),
		manage:         httpapi.NewManagePageHandlers(shell, database, repository, logger),
		editMode:       editModeHandlers,
		notifications:  httpapi.NewNotificationHandlers(center, broadcaster, logger),
		configurations: httpapi.NewConfigurationHandlers(repository, logger),
		invites:        httpapi.NewInviteHandlers(database, logger),
		metrics:        collector.Handler(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))
	router.Use(httpapi.ClientIdentity())
	registerRoutes(router, serveMode, handlers, serverConfig.AllowedOrigin)

	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	sweeper := task.NewScheduler(tabStateSweepJobName, tabStateSweepPeriod, func(context.Context) {
		sweepTabState(center, editModeRegistry, logger)
	}, logger)
	sweeper.Start(signalContext)

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	serveErrors := make(chan error, 1)
	go func() {
		logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress), zap.String(logFieldServeMode, string(serveMode)))
		serveErrors <- httpServer.ListenAndServe()
	}()

	select {
	case serveErr := <-serveErrors:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error(loggerContextServer, zap.Error(serveErr))
		}
	case <-signalContext.Done():
		logger.Info(logEventShuttingDown)
		shutdownContext, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if shutdownErr := httpServer.Shutdown(shutdownContext); shutdownErr != nil {
			logger.Error(loggerContextShutdown, zap.Error(shutdownErr))
		}
	}

	sweeper.Stop()
	broadcaster.Close()
	asyncSaver.Wait()
	return nil
}

// sweepTabState closes expired notifications and drops tabs that stopped calling in.
func sweepTabState(center *notification.Center, registry *editmode.Registry, logger *zap.Logger) {
	center.Sweep()
	expiredTabs := registry.Expire(editmode.IdleTimeout)
	for _, expiredTab := range expiredTabs {
		center.Forget(expiredTab)
	}
	if len(expiredTabs) > 0 {
		logger.Debug(logEventTabsExpired, zap.Int(logFieldExpiredTabs, len(expiredTabs)), zap.Int(logFieldTrackedTabs, registry.Len()))
	}
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	providedValues := map[string]string{
		flagNameDatabaseDataSourceName: configuration.DatabaseDataSourceName,
		flagNameSessionSecret:          configuration.SessionSecret,
		flagNameGoogleClientID:         configuration.GoogleClientID,
		flagNameGoogleClientSecret:     configuration.GoogleClientSecret,
		flagNamePublicBaseURL:          configuration.PublicBaseURL,
	}

	var missingParameters []string
	for _, flagName := range requiredFlagNames {
		if providedValues[flagName] == "" {
			missingParameters = append(missingParameters, flagName)
		}
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
