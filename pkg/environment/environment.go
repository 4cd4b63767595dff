package environment

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Production defines the prod environment
const Production = "prod"

// Staging defines the staging environment
const Staging = "staging"

// Dev defines the dev environment
const Dev = "dev"

// Database backends
const (
	DatabaseMongo  = "mongo"
	DatabaseSQLite = "sqlite"
	DatabaseMemory = "memory"
)

// Environment holds all runtime settings
type Environment struct {
	Environment         string        `mapstructure:"APP_ENV"`
	Port                string        `mapstructure:"PORT"`
	Database            string        `mapstructure:"DATABASE"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DatabaseName        string        `mapstructure:"DATABASE_NAME"`
	SQLitePath          string        `mapstructure:"SQLITE_PATH"`
	Redis               string        `mapstructure:"REDIS"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	LockTTL             time.Duration `mapstructure:"LOCK_TTL"`
	LockTimeout         time.Duration `mapstructure:"LOCK_TIMEOUT"`
	MaxRetries          int           `mapstructure:"MAX_RETRIES"`
	CacheSize           int           `mapstructure:"CACHE_SIZE"`
	GCPProjectID        string        `mapstructure:"GCP_PROJECT_ID"`
	FirebaseCredentials string        `mapstructure:"FIREBASE_CREDENTIALS"`
	FirebaseTopic       string        `mapstructure:"FIREBASE_TOPIC"`
}

var keys = []string{
	"APP_ENV", "PORT", "DATABASE", "DATABASE_URL", "DATABASE_NAME", "SQLITE_PATH", "REDIS", "REDIS_PASSWORD",
	"LOCK_TTL", "LOCK_TIMEOUT", "MAX_RETRIES", "CACHE_SIZE", "GCP_PROJECT_ID", "FIREBASE_CREDENTIALS",
	"FIREBASE_TOPIC",
}

// Global is the environment loaded by Initialize
var Global Environment

// Defaults returns the settings used for every key that is not configured
func Defaults() Environment {
	return Environment{
		Environment:   Dev,
		Port:          "8080",
		Database:      DatabaseMemory,
		DatabaseURL:   "mongodb://localhost:27017",
		DatabaseName:  "activities",
		SQLitePath:    "activities.db",
		LockTTL:       30 * time.Second,
		LockTimeout:   5 * time.Second,
		MaxRetries:    3,
		CacheSize:     256,
		FirebaseTopic: "activities",
	}
}

// Initialize reads the .env file if there is one, lets process variables win, and decodes the result into Global
func Initialize() error {
	data, err := godotenv.Read(".env")
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return errors.Wrap(err, "could not read .env")
		}
		data = map[string]string{}
	}

	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			data[key] = value
		}
	}

	env, err := Decode(data)
	if err != nil {
		return err
	}

	Global = env
	return nil
}

// Decode applies raw key value pairs on top of Defaults
func Decode(data map[string]string) (Environment, error) {
	env := Defaults()

	input := map[string]interface{}{}
	for key, value := range data {
		if value == "" {
			continue
		}
		input[key] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &env,
	})
	if err != nil {
		return env, err
	}

	err = decoder.Decode(input)
	if err != nil {
		return env, errors.Wrap(err, "invalid environment")
	}

	switch env.Database {
	case DatabaseMongo, DatabaseSQLite, DatabaseMemory:
	default:
		return env, errors.Errorf("unknown DATABASE %q", env.Database)
	}

	return env, nil
}
