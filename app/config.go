// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package app defines global configuration models and config loading helpers.
package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	envKey  = "RUN_ENV"
	nameKey = "APP_NAME"
)

// config stores the singleton configuration loaded by LoadConfig.
var config *Config

type (
	// Config is the root configuration model loaded from bin/configs/*.json.
	Config struct {
		System   SysConfig      `json:"system"`   // Application runtime settings.
		Log      LogConfig      `json:"log"`      // Logger output settings.
		Mongo    MongoConfig    `json:"mongo"`    // MongoDB connection settings.
		Schedule ScheduleConfig `json:"schedule"` // Schedule instance settings.
		Monitor  Monitor        `json:"monitor"`  // Panic and alert monitor settings.
		Feishu   Feishu         `json:"feishu"`   // Feishu integration settings.
		Apps     []ServerApp    `json:"apps"`     // Server apps allowed to call the admin API.
		Probe    ProbeConfig    `json:"probe"`    // Built-in HTTP probe job settings.
	}

	// LogConfig controls logger driver and severity level.
	LogConfig struct {
		Driver  string `json:"driver"` // Logger driver, such as "stdout" or "file".
		Level   string `json:"level"`  // Log level: debug, info, warn, error, fatal.
		LogPath string `json:"path"`   // Log file path when driver is "file".
	}

	// SysConfig stores basic runtime properties for the service.
	SysConfig struct {
		Name         string        `json:"name"`          // Service name.
		RunMode      string        `json:"run_mode"`      // Gin run mode.
		HTTPPort     string        `json:"http_port"`     // HTTP listen address.
		ReadTimeout  time.Duration `json:"read_timeout"`  // Maximum request read timeout in seconds.
		WriteTimeout time.Duration `json:"write_timeout"` // Maximum response write timeout in seconds.
		Version      string        `json:"version"`       // Service version.
		RootPath     string        `json:"root_path"`     // Runtime root path.
		DebugMode    bool          `json:"debug_mode"`    // Debug mode toggle.
		LangDir      string        `json:"lang_dir"`      // i18n language files directory.
		DefaultLang  string        `json:"default_lang"`  // Default language key.
		EnvKey       string        `json:"env_key"`       // Environment variable key that stores run env.
		JwtSecret    string        `json:"jwt_secret"`    // Secret key for JWT signing.
		TokenExpire  time.Duration `json:"token_expire"`  // JWT expiration time in seconds.
		Env          string        `json:"env"`           // Resolved runtime environment.
	}

	// MongoConfig stores the document store connection profile.
	MongoConfig struct {
		Enable         bool          `json:"enable"`          // Whether the schedule subsystem starts.
		URI            string        `json:"uri"`             // MongoDB connection string.
		Database       string        `json:"database"`        // Database holding jobs and executions.
		ConnectTimeout time.Duration `json:"connect_timeout"` // Connection timeout in seconds.
	}

	// ScheduleConfig stores schedule instance settings.
	ScheduleConfig struct {
		Name         string        `json:"name"`          // Logical schedule name shared by peers.
		PingInterval time.Duration `json:"ping_interval"` // Heartbeat period in seconds.
	}

	// ServerApp is one credential pair allowed to request admin tokens.
	ServerApp struct {
		AppName   string `json:"app_name"`
		AppID     string `json:"app_id"`
		AppSecret string `json:"app_secret"`
	}

	// ProbeConfig controls the built-in HTTP probe job.
	ProbeConfig struct {
		Enable      bool   `json:"enable"`      // Whether the probe job is registered.
		Name        string `json:"name"`        // Job name in the store.
		Interval    string `json:"interval"`    // Human-readable probe interval.
		URL         string `json:"url"`         // Endpoint probed on every run.
		Concurrency int    `json:"concurrency"` // Invocations one tick may launch.
		MaxRunning  int    `json:"max_running"` // Cluster-wide cap, 0 is unbounded.
		Immediate   bool   `json:"immediate"`   // Whether the first tick fires right away.
	}

	Monitor struct {
		PanicRobot PanicRobot `json:"panic_robot"`
	}

	PanicRobot struct {
		Enable bool        `json:"enable"`
		Wechat robotConfig `json:"wechat"`
		Feishu robotConfig `json:"feishu"`
	}

	robotConfig struct {
		Enable  bool   `json:"enable"`
		PushUrl string `json:"push_url"`
	}

	Feishu struct {
		Enable       bool   `json:"enable"`
		GroupWebhook string `json:"group_webhook"`
		AppID        string `json:"app_id"`
		AppSecret    string `json:"app_secret"`
		EncryptKey   string `json:"encrypt_key"`
	}
)

// LoadConfig loads configuration from bin/configs/<RUN_ENV>.json.
//
// Returns:
//   - *Config: parsed configuration instance also stored globally.
//   - error: returned when reading or decoding configuration fails.
//
// Behavior:
//   - Uses "local" when RUN_ENV is not provided.
//   - Applies APP_NAME override when present.
//
// Example:
//
//	cfg, err := app.LoadConfig()
//	if err != nil {
//		panic(err)
//	}
func LoadConfig() (*Config, error) {
	var (
		runEnv     string
		appName    string
		rootPath   string
		cfgContent []byte
		err        error
	)

	runEnv = os.Getenv(envKey)
	if runEnv == "" {
		runEnv = "local"
	}

	rootPath, err = os.Getwd()
	if err != nil {
		log.Fatalf("failed to resolve working directory: %v", err)
	}

	// Build the environment-specific configuration file path.
	configFilePath := filepath.Join(rootPath, "bin", "configs", fmt.Sprintf("%s.json", runEnv))
	cfgContent, err = os.ReadFile(configFilePath)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(cfgContent, &config)
	if err != nil {
		return nil, err
	}

	appName = os.Getenv(nameKey)
	if appName != "" {
		config.System.Name = appName
	}

	config.System.Env = runEnv
	config.System.RootPath = rootPath
	config.System.EnvKey = envKey
	config.System.LangDir = filepath.Join(rootPath, "bin", "lang")

	checkConfig(config)

	return config, nil
}

// checkConfig validates required runtime configuration fields.
//
// Parameters:
//   - conf: configuration object to validate.
//
// Returns:
//   - None.
func checkConfig(conf *Config) {
	if conf.System.JwtSecret == "" {
		log.Panicf("JwtSecret Can not be null")
	}

	if conf.Mongo.Enable {
		if conf.Mongo.URI == "" || conf.Mongo.Database == "" {
			log.Panicf("Mongo URI and database Can not be null")
		}

		if conf.Schedule.Name == "" {
			log.Panicf("Schedule name Can not be null")
		}
	}
}

// GetConfig returns the globally loaded configuration singleton.
//
// Returns:
//   - *Config: configuration instance loaded by LoadConfig.
func GetConfig() *Config {
	return config
}
