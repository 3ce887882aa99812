package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-sadl-decoder/document"
	"go-sadl-decoder/keys"
	log "go-sadl-decoder/logging"
	redis "go-sadl-decoder/redis"

	"github.com/joho/godotenv"
)

type IssuanceConfig struct {
	JwtPrivateKeyPath string `json:"jwt_private_key_path"`
	IrmaServerUrl     string `json:"irma_server_url"`
	IssuerId          string `json:"issuer_id"`
	Credential        string `json:"credential"`
	SdJwtBatchSize    uint   `json:"sd_jwt_batch_size"`
}

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`
	LogLevel     string       `json:"log_level,omitempty"`

	KeysPath       string `json:"keys_path,omitempty"` // empty uses the embedded table
	ParallelBlocks bool   `json:"parallel_blocks,omitempty"`

	StorageType         string                    `json:"storage_type"`
	CacheTTLSeconds     int                       `json:"cache_ttl_seconds,omitempty"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`

	Issuance *IssuanceConfig `json:"issuance,omitempty"`
}

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	configPath := flag.String("config", os.Getenv("SADL_CONFIG"), "Path for the config.json to use (or set SADL_CONFIG)")
	flag.Parse()

	if *configPath == "" {
		slog.Error("please provide a config path using the --config flag")
		os.Exit(1)
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		slog.Error("failed to read config file", "path", *configPath, "error", err)
		os.Exit(1)
	}

	log.InitLogger(config.LogLevel)
	slog.Info("using config", "path", *configPath, "host", config.ServerConfig.Host, "port", config.ServerConfig.Port)

	serverState, err := createServerState(&config)
	if err != nil {
		slog.Error("failed to set up server", "error", err)
		os.Exit(1)
	}

	server, err := NewServer(serverState, config.ServerConfig)
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		_ = server.Stop()
	}()

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

// readConfigFile parses the JSON config at path. SADL_LOG_LEVEL overrides
// log_level.
func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)

	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)

	if err != nil {
		return Config{}, err
	}

	if level := os.Getenv("SADL_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.StorageType == "" {
		config.StorageType = "none"
	}

	return config, nil
}

func createServerState(config *Config) (*ServerState, error) {
	table, err := keys.Load(config.KeysPath)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded key table", "versions", table.IDs(), "default", table.DefaultID())

	decoder, err := document.NewLicenceDecoder(table, config.ParallelBlocks)
	if err != nil {
		return nil, err
	}

	cache, err := createResultCache(config)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate result cache: %w", err)
	}

	state := &ServerState{
		decoder: NewCachingLicenceDecoder(decoder, cache),
		now:     time.Now,
	}

	if config.Issuance != nil {
		jwtCreator, err := NewIrmaJwtCreator(
			config.Issuance.JwtPrivateKeyPath,
			config.Issuance.IssuerId,
			config.Issuance.Credential,
			config.Issuance.SdJwtBatchSize,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to instantiate jwt creator: %w", err)
		}
		state.jwtCreator = jwtCreator
		state.irmaServerURL = config.Issuance.IrmaServerUrl
	} else {
		slog.Info("issuance not configured, only decoding is available")
	}

	return state, nil
}

func cacheTTL(config *Config) time.Duration {
	if config.CacheTTLSeconds > 0 {
		return time.Duration(config.CacheTTLSeconds) * time.Second
	}
	return DefaultCacheTTL
}

func createResultCache(config *Config) (ResultCache, error) {
	switch config.StorageType {
	case "redis":
		slog.Info("Using redis result cache")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisResultCache(client, config.RedisConfig.Namespace, cacheTTL(config)), nil
	case "redis_sentinel":
		slog.Info("Using redis sentinel result cache")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisResultCache(client, config.RedisSentinelConfig.Namespace, cacheTTL(config)), nil
	case "memory":
		slog.Info("Using in memory result cache")
		return NewInMemoryResultCache(cacheTTL(config)), nil
	case "none":
		return noResultCache{}, nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
