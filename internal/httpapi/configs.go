package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
)

// ConfigurationsPath is the dashboard configuration API.
const ConfigurationsPath = "/api/configs"

const (
	jsonKeyConfigurations = "configurations"
	jsonKeyName           = "name"
	jsonKeySchemaVersion  = "schema_version"

	jsonContentType          = "application/json; charset=utf-8"
	maxConfigurationBodySize = 4 << 20

	logEventListConfigurations = "list_configurations_failed"
	logEventLoadConfiguration  = "load_configuration_failed"
	logEventStoreConfiguration = "store_configuration_failed"
)

// ConfigurationStore reads and writes dashboard configurations.
type ConfigurationStore interface {
	configs.Saver
	Load(ctx context.Context, name string) (configs.Configuration, error)
	List(ctx context.Context) ([]configs.Summary, error)
}

type ConfigurationHandlers struct {
	store  ConfigurationStore
	logger *zap.Logger
}

func NewConfigurationHandlers(store ConfigurationStore, logger *zap.Logger) *ConfigurationHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigurationHandlers{store: store, logger: logger}
}

func (handlers *ConfigurationHandlers) List(context *gin.Context) {
	summaries, listErr := handlers.store.List(context.Request.Context())
	if listErr != nil {
		handlers.logger.Warn(logEventListConfigurations, zap.Error(listErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{jsonKeyConfigurations: summaries})
}

// Get returns the stored document byte for byte.
func (handlers *ConfigurationHandlers) Get(context *gin.Context) {
	name := context.Param("name")
	if configs.ValidateName(name) != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidName})
		return
	}
	configuration, loadErr := handlers.store.Load(context.Request.Context(), name)
	switch {
	case errors.Is(loadErr, configs.ErrConfigurationNotFound):
		context.JSON(http.StatusNotFound, gin.H{jsonKeyError: errorValueUnknownConfiguration})
		return
	case loadErr != nil:
		handlers.logger.Warn(logEventLoadConfiguration, zap.String(logFieldConfigName, name), zap.Error(loadErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueQueryFailed})
		return
	}
	context.Data(http.StatusOK, jsonContentType, configuration.Payload)
}

// Put stores the request body as the configuration document.
func (handlers *ConfigurationHandlers) Put(context *gin.Context) {
	name := context.Param("name")
	if configs.ValidateName(name) != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidName})
		return
	}
	document, readErr := io.ReadAll(io.LimitReader(context.Request.Body, maxConfigurationBodySize))
	if readErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidJSON})
		return
	}
	configuration, parseErr := configs.ParseConfiguration(document)
	if parseErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{jsonKeyError: errorValueInvalidConfiguration})
		return
	}
	if saveErr := handlers.store.Save(context.Request.Context(), name, configuration); saveErr != nil {
		handlers.logger.Warn(logEventStoreConfiguration, zap.String(logFieldConfigName, name), zap.Error(saveErr))
		context.JSON(http.StatusInternalServerError, gin.H{jsonKeyError: errorValueSaveFailed})
		return
	}
	context.JSON(http.StatusOK, gin.H{
		jsonKeyName:          name,
		jsonKeySchemaVersion: configuration.SchemaVersion,
	})
}
