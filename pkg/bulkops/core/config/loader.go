package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.uber.org/fx"

	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/exception"
	"github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// loadConfig loads configuration from a file and environment variables.
// This function is intended to be called only once during application startup.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	// 1. Defaults come from NewConfig().

	// 2. Load configuration from embedded YAML into a temporary Config struct
	// so that YAML values are correctly parsed into their respective types.
	var yamlConfig Config
	if err := yaml.Unmarshal(embeddedConfig, &yamlConfig); err != nil {
		return nil, exception.NewOrchestrationError(moduleName, "failed to unmarshal embedded config", err, false)
	}

	// 3. Merge YAML configuration into the default configuration.
	mergeConfig(cfg, &yamlConfig)

	// 4. Override with environment variables.
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewOrchestrationError(moduleName, "failed to load config from environment variables", err, false)
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It initializes the application configuration by loading defaults, merging
// from embedded YAML, and overriding with environment variables. It also sets
// the global logger level.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Cockpit.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Cockpit.System.Logging.Level)

	return cfg, nil
}

// LoadConfig loads configuration from configuration files and environment
// variables. This function is expected to be called only once during
// application startup.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig overwrite corresponding values in destConfig if they
// are not zero/empty values for their type.
func mergeConfig(destConfig, sourceConfig *Config) {
	mergeCockpitConfig(&destConfig.Cockpit, &sourceConfig.Cockpit)
}

// mergeCockpitConfig merges source into dest.
func mergeCockpitConfig(dest, source *CockpitConfig) {
	if source.Orchestrator.PollingIntervalMs != 0 {
		dest.Orchestrator.PollingIntervalMs = source.Orchestrator.PollingIntervalMs
	}
	if source.Orchestrator.BatchCount != 0 {
		dest.Orchestrator.BatchCount = source.Orchestrator.BatchCount
	}
	if source.Orchestrator.HandleStoreRef != "" {
		dest.Orchestrator.HandleStoreRef = source.Orchestrator.HandleStoreRef
	}
	if source.Orchestrator.Archive.Enabled {
		dest.Orchestrator.Archive.Enabled = true
	}
	if source.Orchestrator.Archive.StorageRef != "" {
		dest.Orchestrator.Archive.StorageRef = source.Orchestrator.Archive.StorageRef
	}
	if source.Orchestrator.Archive.Bucket != "" {
		dest.Orchestrator.Archive.Bucket = source.Orchestrator.Archive.Bucket
	}

	if source.Backend.APIEndpoint != "" {
		dest.Backend.APIEndpoint = source.Backend.APIEndpoint
	}
	if source.Backend.APIToken != "" {
		dest.Backend.APIToken = source.Backend.APIToken
	}
	if source.Backend.TimeoutSeconds != 0 {
		dest.Backend.TimeoutSeconds = source.Backend.TimeoutSeconds
	}

	if source.System.Timezone != "" {
		dest.System.Timezone = source.System.Timezone
	}
	if source.System.Logging.Level != "" {
		dest.System.Logging.Level = source.System.Logging.Level
	}

	if source.Databases != nil {
		if dest.Databases == nil {
			dest.Databases = make(map[string]interface{})
		}
		for key, value := range source.Databases {
			dest.Databases[key] = value
		}
	}
	if source.Storages != nil {
		if dest.Storages == nil {
			dest.Storages = make(map[string]interface{})
		}
		for key, value := range source.Storages {
			dest.Storages[key] = value
		}
	}
}

// loadStructFromEnv recursively loads configuration values into a struct from
// environment variables. It uses the "yaml" tag to determine the environment
// variable name (e.g., COCKPIT_BACKEND_API_ENDPOINT).
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}

		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
// It handles string, int, float, and bool types.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
