package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"anarchy.ttfm/payin/cmd/checkout/internal/sessions"
	"anarchy.ttfm/payin/cmd/checkout/internal/summarycache"
	"anarchy.ttfm/payin/currencies"
	"anarchy.ttfm/payin/merchant"
	"anarchy.ttfm/payin/utils"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// ApiOriginEnv overrides the configured merchant API origin so each
// environment can point at its own deployment
const ApiOriginEnv = "PAYIN_API_ORIGIN"

// Yaml configuration reference
type (
	API struct {
		// Base origin of the merchant API
		Url string `yaml:"url"`
		// Request timeout
		Timeout time.Duration `yaml:"timeout"`
	}
	Config struct {
		ListenAddress string        `yaml:"listen-address"`
		Api           API           `yaml:"api"`
		SessionTTL    time.Duration `yaml:"session-ttl"`
		CacheTTL      time.Duration `yaml:"cache-ttl"`
	}
)

// Compiled process wide dependencies
type Compiled struct {
	DB         *badger.DB
	Client     *merchant.Client
	Sessions   *sessions.Registry
	Cache      summarycache.Cache
	Currencies *currencies.Store
}

func (c *Compiled) Close() {
	c.Sessions.Close()
	c.DB.Close()
}

func (c *Config) Compile(logger zerolog.Logger) (compiled Compiled, err error) {
	if c.ListenAddress == "" {
		c.ListenAddress = ":8080"
	}
	if c.Api.Timeout <= 0 {
		c.Api.Timeout = 30 * time.Second
	}
	if origin := os.Getenv(ApiOriginEnv); origin != "" {
		c.Api.Url = origin
	}

	compiled.Client = merchant.New(merchant.Config{
		BaseURL: c.Api.Url,
		Client:  &http.Client{Timeout: c.Api.Timeout},
		Logger:  logger,
	})

	options := badger.
		DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	compiled.DB, err = badger.Open(options)
	if err != nil {
		return compiled, fmt.Errorf("failed to open database: %w", err)
	}

	compiled.Cache = summarycache.New(summarycache.Config{
		DB:  compiled.DB,
		TTL: c.CacheTTL,
	})
	compiled.Sessions = sessions.New(sessions.Config{
		Service: compiled.Client,
		TTL:     c.SessionTTL,
		Logger:  logger,
	})

	// The supported currency list is fetched once and read only after
	ctx, cancel := utils.NewContext()
	defer cancel()
	compiled.Currencies = currencies.Load(ctx, compiled.Client, logger)

	return compiled, nil
}
