// Package config loads the application configuration from defaults,
// command line flags and environment variables (in that priority order,
// environment winning), optionally seeded from a .env file.
package config

import (
	"log"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the storefront service.
type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	LogLevel              string        `env:"LOG_LEVEL" validate:"loglevel"`
	DBFileName            string        `env:"FILE_STORAGE_PATH" validate:"omitempty,filepath"`
	DatabaseDSN           string        `env:"DATABASE_DSN"`
	DBConnectionTimeout   time.Duration `env:"DB_CONNECTION_TIMEOUT"`
	MigrationsDir         string        `env:"MIGRATIONS_DIR"`
	TokenSigningSecretKey string        `env:"TOKEN_SIGNING_SECRET_KEY" validate:"required,base64url"`
	TokenTTL              time.Duration `env:"TOKEN_TTL" validate:"gt=0"`
	TrustedSubnet         string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ImagesDir             string        `env:"IMAGES_DIR"`
}

// defaultTokenSigningSecretKey is a development fallback. Any deployment
// must override it; app.New warns loudly when it is still in effect.
const defaultTokenSigningSecretKey = "c3RvcmVmcm9udC1zaWduaW5nLXNlY3JldA=="

var defaultConfig = Config{
	RunAddr:               ":8080",
	LogLevel:              "info",
	DBFileName:            "db.json",
	DatabaseDSN:           "",
	DBConnectionTimeout:   10 * time.Second,
	MigrationsDir:         "cmd/storefront/migrations",
	TokenSigningSecretKey: defaultTokenSigningSecretKey,
	TokenTTL:              time.Hour,
	TrustedSubnet:         "",
	ImagesDir:             "public/images",
}

// IsDefaultTokenSigningSecretKey reports whether the signing secret was
// left at the built-in development default, meaning anyone who reads the
// source can forge bearer tokens.
func (values *Config) IsDefaultTokenSigningSecretKey() bool {
	return values.TokenSigningSecretKey == defaultTokenSigningSecretKey
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (values *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}

// InitOption customizes New.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing keeps New from touching the flag package, which
// tests need because the testing framework registers its own flags.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
}

// New builds the effective configuration and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	if !options.disableFlagsParsing {
		parseFlags(values)
	}

	valuesFromEnv := Config{}
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}
	overrideWithEnv(values, valuesFromEnv)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func overrideWithEnv(values *Config, valuesFromEnv Config) {
	if valuesFromEnv.RunAddr != "" {
		values.RunAddr = valuesFromEnv.RunAddr
	}

	if valuesFromEnv.LogLevel != "" {
		values.LogLevel = valuesFromEnv.LogLevel
	}

	if valuesFromEnv.DBFileName != "" {
		values.DBFileName = valuesFromEnv.DBFileName
	}

	if valuesFromEnv.DatabaseDSN != "" {
		values.DatabaseDSN = valuesFromEnv.DatabaseDSN
	}

	if valuesFromEnv.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = valuesFromEnv.DBConnectionTimeout
	}

	if valuesFromEnv.MigrationsDir != "" {
		values.MigrationsDir = valuesFromEnv.MigrationsDir
	}

	if valuesFromEnv.TokenSigningSecretKey != "" {
		values.TokenSigningSecretKey = valuesFromEnv.TokenSigningSecretKey
	}

	if valuesFromEnv.TokenTTL != 0 {
		values.TokenTTL = valuesFromEnv.TokenTTL
	}

	if valuesFromEnv.TrustedSubnet != "" {
		values.TrustedSubnet = valuesFromEnv.TrustedSubnet
	}

	if valuesFromEnv.ImagesDir != "" {
		values.ImagesDir = valuesFromEnv.ImagesDir
	}
}
