// Package config loads the index's tunables from a YAML file, adapted
// from the teacher's own internal/config.go loader.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds every knob the storage core needs: pool sizing, the
// replacer's K, the on-disk file location, and the hash table's depth
// and bucket-size parameters.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	BufferPool struct {
		PoolSize  int `mapstructure:"pool_size"`
		ReplacerK int `mapstructure:"replacer_k"`
	} `mapstructure:"buffer_pool"`

	HashIndex struct {
		HeaderMaxDepth    uint32 `mapstructure:"header_max_depth"`
		DirectoryMaxDepth uint32 `mapstructure:"directory_max_depth"`
		BucketMaxSize     int    `mapstructure:"bucket_max_size"`
	} `mapstructure:"hash_index"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	cfg := &Config{DataDir: "./data"}
	cfg.BufferPool.PoolSize = 128
	cfg.BufferPool.ReplacerK = 2
	cfg.HashIndex.HeaderMaxDepth = 9
	cfg.HashIndex.DirectoryMaxDepth = 9
	cfg.HashIndex.BucketMaxSize = 0
	return cfg
}

// Load reads a YAML config file at path, falling back to Default for any
// field it doesn't set.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}
