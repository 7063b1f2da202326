package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/vorvix/zato/internal/client"
)

const (
	homeDir   = ".enmasse"
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "ZATO"
)

// Dir returns the path to the config directory (~/.enmasse/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", homeDir)
	}
	return filepath.Join(home, homeDir)
}

// FilePath returns the full path to the config file (~/.enmasse/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Load initializes viper to read from the config file and the ZATO_*
// environment. A missing config file is fine; the environment or flags
// can supply everything.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	viper.SetDefault("timeout", client.DefaultTimeout)

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// ClientConfig assembles the connection settings for the remote
// invocation client.
func ClientConfig() (client.Config, error) {
	cfg := client.Config{
		ServerURL: viper.GetString("server_url"),
		Username:  viper.GetString("username"),
		Password:  viper.GetString("password"),
		ClusterID: viper.GetInt("cluster_id"),
		Timeout:   viper.GetDuration("timeout"),
	}
	if cfg.ServerURL == "" {
		return cfg, fmt.Errorf("server_url is not set; configure %s or export %s_SERVER_URL", FilePath(), envPrefix)
	}
	return cfg, nil
}
