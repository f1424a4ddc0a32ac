package server

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	apperrors "usergroups/internal/domain/errors"
)

type Config struct {
	Addr        string
	Port        int
	DBStr       string
	MigratePath string
	Secret      string
	ExpiresInMs int64
	InMemory    bool
}

const (
	defaultAddr        = "0.0.0.0"
	defaultPort        = 3000
	defaultDBStr       = "postgresql://shouldbeinVaultuser:shouldbeinVaultpassword@db:5432/usergroups?sslmode=disable"
	defaultMigratePath = "migrations"
	defaultSecret      = "shouldbeinVaultsecret"
	defaultExpiresInMs = 600000
)

var (
	addr        = flag.String("addr", defaultAddr, "server address")
	port        = flag.Int("port", defaultPort, "server port")
	dbstr       = flag.String("dbstr", defaultDBStr, "database connection string")
	migratePath = flag.String("migratepath", defaultMigratePath, "path to the migrations directory")
	secret      = flag.String("secret", "", "JWT signing secret (overrides SECRET)")
	inMemory    = flag.Bool("inmemory", false, "run against the in-memory store, no database")
	configFile  = flag.String("c", "", "path to a JSON config file")
	parsed      = false
)

func ReadConfig() *Config {
	if !parsed {
		flag.Parse()
		parsed = true
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:        defaultAddr,
		Port:        defaultPort,
		DBStr:       defaultDBStr,
		MigratePath: defaultMigratePath,
		Secret:      defaultSecret,
		ExpiresInMs: defaultExpiresInMs,
	}

	if jsonConfig := loadJSONConfig(); jsonConfig != nil {
		cfg = jsonConfig
	}

	cfg = applyEnvOverrides(cfg)
	cfg = applyFlagOverrides(cfg)

	return cfg
}

func loadJSONConfig() *Config {
	configPath := *configFile
	if configPath == "" {
		configPath = os.Getenv("CONFIG")
	}
	if configPath == "" {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		fmt.Printf("Warning: %s %s: %v\n", apperrors.ErrConfigFileReadFailed.Error(), configPath, err)
		return nil
	}

	var jsonConfig Config
	if err := json.Unmarshal(data, &jsonConfig); err != nil {
		fmt.Printf("Warning: %s: %v\n", apperrors.ErrConfigParseFailed.Error(), err)
		return nil
	}
	return &jsonConfig
}

func applyEnvOverrides(cfg *Config) *Config {
	if addr := os.Getenv("ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err != nil {
			fmt.Printf("Warning: %s in PORT: %s\n", apperrors.ErrConfigInvalidFormat.Error(), port)
		} else if p < 1 || p > 65535 {
			fmt.Printf("Warning: %s - port must be between 1 and 65535: %d\n", apperrors.ErrConfigInvalidFormat.Error(), p)
		} else {
			cfg.Port = p
		}
	}
	if dbStr := os.Getenv("DB_STR"); dbStr != "" {
		cfg.DBStr = dbStr
	}
	if migratePath := os.Getenv("MIGRATE_PATH"); migratePath != "" {
		cfg.MigratePath = migratePath
	}
	if secret := os.Getenv("SECRET"); secret != "" {
		cfg.Secret = secret
	}
	if expiresIn := os.Getenv("EXPIRES_IN"); expiresIn != "" {
		if ms, err := strconv.ParseInt(expiresIn, 10, 64); err != nil || ms <= 0 {
			fmt.Printf("Warning: %s in EXPIRES_IN: %s\n", apperrors.ErrConfigInvalidFormat.Error(), expiresIn)
		} else {
			cfg.ExpiresInMs = ms
		}
	}

	if cfg.DBStr == defaultDBStr {
		dbUser := os.Getenv("DB_USER")
		dbPassword := os.Getenv("DB_PASSWORD")
		dbName := os.Getenv("DB_NAME")
		dbHost := os.Getenv("DB_HOST")
		dbPort := os.Getenv("DB_PORT")
		if dbUser != "" && dbPassword != "" && dbName != "" && dbHost != "" && dbPort != "" {
			cfg.DBStr = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, dbHost, dbPort, dbName)
		}
	}

	return cfg
}

func applyFlagOverrides(cfg *Config) *Config {
	if *addr != defaultAddr {
		cfg.Addr = *addr
	}
	if *port != defaultPort {
		cfg.Port = *port
	}
	if *dbstr != defaultDBStr {
		cfg.DBStr = *dbstr
	}
	if *migratePath != defaultMigratePath {
		cfg.MigratePath = *migratePath
	}
	if *secret != "" {
		cfg.Secret = *secret
	}
	cfg.InMemory = *inMemory

	return cfg
}
