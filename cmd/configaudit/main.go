package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/MarkoPoloResearchLab/homeboard/internal/configs"
)

const (
	defaultConfigDirectory = "configs"
	defaultEnvFile         = ".env"
	schemaVersionKey       = "schemaVersion"
	minimumSessionSecret   = 32
)

var (
	errAuditFailed        = errors.New("config_audit_failed")
	configurationSuffixes = map[string]struct{}{".yml": {}, ".yaml": {}, ".json": {}}
	requiredServerKeys    = []string{
		"DB_DSN",
		"SESSION_SECRET",
		"GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET",
		"PUBLIC_BASE_URL",
	}
)

type auditResult struct {
	errors   []string
	warnings []string
}

func (result *auditResult) addError(message string, arguments ...any) {
	result.errors = append(result.errors, fmt.Sprintf(message, arguments...))
}

func (result *auditResult) addWarning(message string, arguments ...any) {
	result.warnings = append(result.warnings, fmt.Sprintf(message, arguments...))
}

func (result auditResult) ok() bool {
	return len(result.errors) == 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(arguments []string, stdout io.Writer, stderr io.Writer) int {
	flagSet := pflag.NewFlagSet("configaudit", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	configDirectory := flagSet.String("dir", defaultConfigDirectory, "directory of exported dashboard configurations")
	envFile := flagSet.String("env-file", defaultEnvFile, "server environment file to check (skipped when absent)")
	if parseErr := flagSet.Parse(arguments); parseErr != nil {
		return 2
	}

	result := runAudit(*configDirectory, *envFile)
	sort.Strings(result.errors)
	sort.Strings(result.warnings)

	for _, warning := range result.warnings {
		_, _ = fmt.Fprintf(stdout, "WARN: %s\n", warning)
	}
	for _, errorMessage := range result.errors {
		_, _ = fmt.Fprintf(stderr, "ERROR: %s\n", errorMessage)
	}
	if !result.ok() {
		_, _ = fmt.Fprintf(stderr, "config-audit failed\n")
		return 1
	}
	_, _ = fmt.Fprintf(stdout, "config-audit OK\n")
	return 0
}

func runAudit(configDirectory string, envFile string) auditResult {
	var result auditResult
	auditConfigurationDirectory(configDirectory, &result)
	auditServerEnvironment(envFile, &result)
	return result
}

func auditConfigurationDirectory(configDirectory string, result *auditResult) {
	info, statErr := os.Stat(configDirectory)
	if statErr != nil {
		result.addError("read configuration directory %s: %v", configDirectory, statErr)
		return
	}
	if !info.IsDir() {
		result.addError("configuration directory %s is not a directory", configDirectory)
		return
	}

	pathsByName := make(map[string][]string)
	walkErr := filepath.WalkDir(configDirectory, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		extension := strings.ToLower(filepath.Ext(path))
		if _, supported := configurationSuffixes[extension]; !supported {
			return nil
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		pathsByName[name] = append(pathsByName[name], path)
		auditConfigurationFile(path, name, result)
		return nil
	})
	if walkErr != nil {
		result.addError("scan configuration directory %s: %v", configDirectory, walkErr)
		return
	}

	if len(pathsByName) == 0 {
		result.addWarning("configuration directory %s contains no configurations", configDirectory)
	}
	for name, paths := range pathsByName {
		if len(paths) > 1 {
			sort.Strings(paths)
			result.addError("configuration %s is defined more than once: %s", name, strings.Join(paths, ", "))
		}
	}
}

func auditConfigurationFile(path string, name string, result *auditResult) {
	if nameErr := configs.ValidateName(name); nameErr != nil {
		result.addError("%s: configuration name %q must be 1-64 characters of letters, digits, '-' or '_'", path, name)
	}

	document, readErr := os.ReadFile(path)
	if readErr != nil {
		result.addError("read %s: %v", path, readErr)
		return
	}

	jsonDocument, fieldCount, convertErr := normalizeDocument(document)
	if convertErr != nil {
		result.addError("parse %s: %v", path, convertErr)
		return
	}

	configuration, parseErr := configs.ParseConfiguration(jsonDocument)
	if parseErr != nil {
		result.addError("%s: %v", path, parseErr)
		return
	}
	if !configuration.HasSchemaVersion() {
		result.addError("%s: %s is missing, leaving edit mode would not save this configuration", path, schemaVersionKey)
	}
	if fieldCount == 0 {
		result.addWarning("%s: configuration has no layout fields", path)
	}
}

// normalizeDocument decodes a YAML or JSON document into canonical JSON and
// reports how many top-level fields besides schemaVersion it carries.
func normalizeDocument(document []byte) ([]byte, int, error) {
	var root yaml.Node
	if decodeErr := yaml.Unmarshal(document, &root); decodeErr != nil {
		return nil, 0, decodeErr
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, 0, fmt.Errorf("%w: top-level value must be a mapping", errAuditFailed)
	}

	var decoded map[string]any
	if decodeErr := root.Decode(&decoded); decodeErr != nil {
		return nil, 0, decodeErr
	}
	jsonDocument, marshalErr := json.Marshal(decoded)
	if marshalErr != nil {
		return nil, 0, marshalErr
	}

	fieldCount := len(decoded)
	if _, hasVersion := decoded[schemaVersionKey]; hasVersion {
		fieldCount--
	}
	return jsonDocument, fieldCount, nil
}

func auditServerEnvironment(envFile string, result *auditResult) {
	if strings.TrimSpace(envFile) == "" {
		return
	}
	if _, statErr := os.Stat(envFile); statErr != nil {
		if os.IsNotExist(statErr) {
			return
		}
		result.addError("env file %s: %v", envFile, statErr)
		return
	}

	values, duplicates, parseErr := parseDotEnv(envFile)
	if parseErr != nil {
		result.addError("parse env file %s: %v", envFile, parseErr)
		return
	}
	for _, duplicate := range duplicates {
		result.addError("env file %s defines %s more than once", envFile, duplicate)
	}
	for _, key := range requiredServerKeys {
		if strings.TrimSpace(values[key]) == "" {
			result.addError("env file %s: required env %s is missing or empty", envFile, key)
		}
	}
	if secret := values["SESSION_SECRET"]; secret != "" && len(secret) < minimumSessionSecret {
		result.addWarning("env file %s: SESSION_SECRET is shorter than %d bytes", envFile, minimumSessionSecret)
	}
}

func parseDotEnv(path string) (map[string]string, []string, error) {
	file, openErr := os.Open(path)
	if openErr != nil {
		return nil, nil, openErr
	}
	defer func() { _ = file.Close() }()

	entries := make(map[string]string)
	seen := make(map[string]struct{})
	var duplicates []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if _, already := seen[key]; already {
			duplicates = append(duplicates, key)
		}
		seen[key] = struct{}{}
		entries[key] = value
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, nil, scanErr
	}

	return entries, uniqueStrings(duplicates), nil
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return values
	}
	sort.Strings(values)
	unique := make([]string, 0, len(values))
	for _, value := range values {
		if len(unique) == 0 || unique[len(unique)-1] != value {
			unique = append(unique, value)
		}
	}
	return unique
}
