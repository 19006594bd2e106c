package storage

import (
	"fmt"
	"sync"

	config "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/core/config"
	configbinder "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/configbinder"
	logger "github.com/nerdfunk-net/cockpit-ng-sub003/pkg/bulkops/support/util/logger"
)

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type            string `yaml:"type"`             // Type of storage (e.g., "gcs", "local").
	BucketName      string `yaml:"bucket_name"`      // Default bucket name for operations.
	CredentialsFile string `yaml:"credentials_file"` // Path to credentials file (e.g., service account key for GCS).
	BaseDir         string `yaml:"base_dir"`         // Base directory for local file system operations.
}

// Factory creates a Connection from a decoded StorageConfig.
type Factory func(cfg StorageConfig, name string) (Connection, error)

var (
	factoryRegistry = make(map[string]Factory)
	factoryMutex    sync.RWMutex
)

// RegisterFactory registers a connection factory for the given storage type.
// Concrete adapters register themselves from their package init, so an
// application selects its backends by importing the matching subpackages.
func RegisterFactory(storageType string, factory Factory) {
	factoryMutex.Lock()
	defer factoryMutex.Unlock()
	if _, exists := factoryRegistry[storageType]; exists {
		logger.Warnf("Storage factory for type '%s' already registered. Overwriting.", storageType)
	}
	factoryRegistry[storageType] = factory
}

// ResolveStorageConfig extracts and decodes the named storage configuration
// from the loaded application configuration.
func ResolveStorageConfig(cfg *config.Config, name string) (StorageConfig, error) {
	raw, ok := cfg.Cockpit.Storages[name]
	if !ok {
		return StorageConfig{}, fmt.Errorf("storage configuration '%s' not found", name)
	}

	properties, ok := raw.(map[string]interface{})
	if !ok {
		return StorageConfig{}, fmt.Errorf("storage configuration '%s' is not a mapping", name)
	}

	var storageCfg StorageConfig
	if err := configbinder.BindProperties(properties, &storageCfg); err != nil {
		return StorageConfig{}, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
	}
	if storageCfg.Type == "" {
		return StorageConfig{}, fmt.Errorf("storage configuration '%s' has no type", name)
	}
	return storageCfg, nil
}

// Open resolves the named storage configuration and creates a connection via
// the registered factory for its type.
func Open(cfg *config.Config, name string) (Connection, error) {
	storageCfg, err := ResolveStorageConfig(cfg, name)
	if err != nil {
		return nil, err
	}

	factoryMutex.RLock()
	factory, ok := factoryRegistry[storageCfg.Type]
	factoryMutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage factory registered for type '%s' (connection '%s')", storageCfg.Type, name)
	}

	conn, err := factory(storageCfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage connection '%s': %w", name, err)
	}
	logger.Debugf("Created new storage connection '%s' (%s).", name, storageCfg.Type)
	return conn, nil
}
