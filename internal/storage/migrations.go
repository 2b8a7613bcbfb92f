package storage

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/homeboard/internal/model"
)

const errorMessageBackfillSchemaVersion = "storage: backfill schema version"

type payloadSchemaVersion struct {
	SchemaVersion *int `json:"schemaVersion"`
}

// backfillConfigurationSchemaVersions fills the schema_version column of rows
// written before the column existed. Payloads without an integer schemaVersion
// keep a NULL column.
func backfillConfigurationSchemaVersions(database *gorm.DB) error {
	var records []model.DashboardConfiguration
	if queryErr := database.Select("name", "payload").Where("schema_version IS NULL").Find(&records).Error; queryErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBackfillSchemaVersion, queryErr)
	}

	for _, record := range records {
		var versionField payloadSchemaVersion
		if json.Unmarshal(record.Payload, &versionField) != nil || versionField.SchemaVersion == nil {
			continue
		}
		updateErr := database.Model(&model.DashboardConfiguration{}).
			Where("name = ?", record.Name).
			UpdateColumn("schema_version", *versionField.SchemaVersion).Error
		if updateErr != nil {
			return fmt.Errorf("%s: %w", errorMessageBackfillSchemaVersion, updateErr)
		}
	}
	return nil
}
