// Package config resolves xsdcheck settings from flags, environment,
// .env files and an optional .xsdcheck.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/agentflare-ai/xsdcheck"
)

// AppFs is the filesystem used for config files, .env files, schemas and documents.
var AppFs = afero.NewOsFs()

const (
	// EnvPrefix prefixes every environment override, e.g. XSDCHECK_XSD.
	EnvPrefix = "XSDCHECK"
	// ConfigName is the config file name searched for without extension.
	ConfigName = ".xsdcheck"
)

// Viper keys. Flag names match keys so flags bind directly.
const (
	KeyXSD          = "xsd"
	KeyXML          = "xml"
	KeyScan         = "scan"
	KeyKey          = "key"
	KeyStrict       = "strict"
	KeyVerbose      = "verbose"
	KeyNoColor      = "no-color"
	KeyDetail       = "detail"
	KeyContextLines = "context-lines"
	KeyDebounce     = "debounce"
)

// Config holds the application configuration
type Config struct {
	XSDDir       string
	XMLDir       string
	Scan         xsdcheck.ScanMode
	Key          xsdcheck.KeyMode
	Strict       bool
	Verbose      bool
	NoColor      bool
	Detail       bool
	ContextLines int
	Debounce     time.Duration
	// File is the config file that was read, if any.
	File string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyXSD, "xsd")
	v.SetDefault(KeyXML, "xml")
	v.SetDefault(KeyScan, string(xsdcheck.ScanLines))
	v.SetDefault(KeyKey, string(xsdcheck.KeyByPath))
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyDetail, false)
	v.SetDefault(KeyContextLines, 2)
	v.SetDefault(KeyDebounce, 500*time.Millisecond)
	return v
}

// Load loads configuration from various sources. An explicit configFile must
// exist; otherwise .xsdcheck.{yaml,json,toml} is looked up in searchPaths, or in
// the working directory and home directory when none are given.
func Load(v *viper.Viper, configFile string, searchPaths ...string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", configFile, err)
		}
	} else {
		if len(searchPaths) == 0 {
			paths, err := defaultSearchPaths()
			if err != nil {
				return nil, err
			}
			searchPaths = paths
		}
		v.SetConfigName(ConfigName)
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	scan, err := xsdcheck.ParseScanMode(v.GetString(KeyScan))
	if err != nil {
		return nil, err
	}
	key, err := xsdcheck.ParseKeyMode(v.GetString(KeyKey))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		XSDDir:       v.GetString(KeyXSD),
		XMLDir:       v.GetString(KeyXML),
		Scan:         scan,
		Key:          key,
		Strict:       v.GetBool(KeyStrict),
		Verbose:      v.GetBool(KeyVerbose),
		NoColor:      v.GetBool(KeyNoColor),
		Detail:       v.GetBool(KeyDetail),
		ContextLines: v.GetInt(KeyContextLines),
		Debounce:     v.GetDuration(KeyDebounce),
		File:         v.ConfigFileUsed(),
	}
	if cfg.ContextLines < 0 {
		return nil, fmt.Errorf("context-lines must not be negative, got %d", cfg.ContextLines)
	}
	if cfg.Debounce <= 0 {
		return nil, fmt.Errorf("debounce must be positive, got %s", cfg.Debounce)
	}

	return cfg, nil
}

func defaultSearchPaths() ([]string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}
	return []string{".", home, filepath.Join(home, ".config", "xsdcheck")}, nil
}

// loadDotEnv applies .env without overriding the environment, then .env.local
// with override.
func loadDotEnv() error {
	if err := applyEnvFile(".env", false); err != nil {
		return err
	}
	return applyEnvFile(".env.local", true)
}

func applyEnvFile(name string, override bool) error {
	f, err := AppFs.Open(name)
	if err != nil {
		// Missing env files are fine.
		return nil
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	for k, val := range values {
		if _, set := os.LookupEnv(k); set && !override {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}
