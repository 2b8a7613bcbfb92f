package configs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const schemaVersionField = "schemaVersion"

var (
	// ErrInvalidConfiguration indicates the configuration document is not a JSON object.
	ErrInvalidConfiguration = errors.New("configs: invalid configuration document")
	// ErrInvalidSchemaVersion indicates the schemaVersion field is present but not an integer.
	ErrInvalidSchemaVersion = errors.New("configs: invalid schema version")
)

// Configuration is the dashboard layout document. Apart from the schema version
// the document is opaque: it is stored and returned byte for byte.
type Configuration struct {
	SchemaVersion *int
	Payload       json.RawMessage
}

// ParseConfiguration decodes a configuration document and extracts its schema version.
func ParseConfiguration(document []byte) (Configuration, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Configuration{}, ErrInvalidConfiguration
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	configuration := Configuration{Payload: append(json.RawMessage(nil), trimmed...)}
	rawVersion, present := fields[schemaVersionField]
	if !present || bytes.Equal(bytes.TrimSpace(rawVersion), []byte("null")) {
		return configuration, nil
	}

	var schemaVersion int
	if err := json.Unmarshal(rawVersion, &schemaVersion); err != nil {
		return Configuration{}, fmt.Errorf("%w: %v", ErrInvalidSchemaVersion, err)
	}
	configuration.SchemaVersion = &schemaVersion
	return configuration, nil
}

// HasSchemaVersion reports whether the document declares the schema it was written with.
// Documents without one are never persisted by the edit-mode toggle.
func (configuration *Configuration) HasSchemaVersion() bool {
	return configuration != nil && configuration.SchemaVersion != nil
}

// MarshalJSON returns the original document.
func (configuration Configuration) MarshalJSON() ([]byte, error) {
	if len(configuration.Payload) == 0 {
		return []byte("null"), nil
	}
	return configuration.Payload, nil
}

// UnmarshalJSON parses the document with ParseConfiguration.
func (configuration *Configuration) UnmarshalJSON(document []byte) error {
	parsed, parseErr := ParseConfiguration(document)
	if parseErr != nil {
		return parseErr
	}
	*configuration = parsed
	return nil
}
