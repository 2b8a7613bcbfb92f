package configs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MarkoPoloResearchLab/homeboard/internal/model"
)

const (
	errorMessageSaveConfiguration = "configs: save configuration"
	errorMessageLoadConfiguration = "configs: load configuration"
	errorMessageListConfiguration = "configs: list configurations"
)

// ErrConfigurationNotFound indicates no configuration is stored under the requested name.
var ErrConfigurationNotFound = errors.New("configs: configuration not found")

// Saver persists a configuration under a name.
type Saver interface {
	Save(ctx context.Context, name string, configuration Configuration) error
}

// Summary describes a stored configuration without its payload.
type Summary struct {
	Name          string    `json:"name"`
	SchemaVersion *int      `json:"schema_version"`
	Revision      int64     `json:"revision"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repository stores configurations in the dashboard_configurations table.
type Repository struct {
	database *gorm.DB
}

// NewRepository constructs a Repository over the provided database.
func NewRepository(database *gorm.DB) *Repository {
	return &Repository{database: database}
}

// Save inserts the configuration or replaces the stored one, bumping its revision.
func (repository *Repository) Save(ctx context.Context, name string, configuration Configuration) error {
	if validationErr := ValidateName(name); validationErr != nil {
		return validationErr
	}

	record := model.DashboardConfiguration{
		Name:          name,
		SchemaVersion: configuration.SchemaVersion,
		Payload:       []byte(configuration.Payload),
		Revision:      1,
	}
	upsertErr := repository.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{
			"schema_version": configuration.SchemaVersion,
			"payload":        []byte(configuration.Payload),
			"revision":       gorm.Expr("dashboard_configurations.revision + 1"),
			"updated_at":     time.Now().UTC(),
		}),
	}).Create(&record).Error
	if upsertErr != nil {
		return fmt.Errorf("%s: %w", errorMessageSaveConfiguration, upsertErr)
	}
	return nil
}

// Load returns the configuration stored under name.
func (repository *Repository) Load(ctx context.Context, name string) (Configuration, error) {
	var record model.DashboardConfiguration
	queryErr := repository.database.WithContext(ctx).First(&record, "name = ?", name).Error
	if errors.Is(queryErr, gorm.ErrRecordNotFound) {
		return Configuration{}, ErrConfigurationNotFound
	}
	if queryErr != nil {
		return Configuration{}, fmt.Errorf("%s: %w", errorMessageLoadConfiguration, queryErr)
	}
	return Configuration{
		SchemaVersion: record.SchemaVersion,
		Payload:       record.Payload,
	}, nil
}

// List returns every stored configuration ordered by name.
func (repository *Repository) List(ctx context.Context) ([]Summary, error) {
	var records []model.DashboardConfiguration
	queryErr := repository.database.WithContext(ctx).
		Select("name", "schema_version", "revision", "updated_at").
		Order("name ASC").
		Find(&records).Error
	if queryErr != nil {
		return nil, fmt.Errorf("%s: %w", errorMessageListConfiguration, queryErr)
	}

	summaries := make([]Summary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, Summary{
			Name:          record.Name,
			SchemaVersion: record.SchemaVersion,
			Revision:      record.Revision,
			UpdatedAt:     record.UpdatedAt,
		})
	}
	return summaries, nil
}
