package main

import (
	"errors"
	"flag"
	"io/fs"
	"os"

	"anarchy.ttfm/payin/cmd/checkout/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var app struct {
	debug  bool
	config string
}

func init() {
	flagset := flag.NewFlagSet("checkout", flag.ExitOnError)
	flagset.BoolVar(&app.debug, "debug", false, "set debug mode")
	flagset.StringVar(&app.config, "config", "config.yaml", "YAML configuration")
	err := flagset.Parse(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
}

func main() {
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "checkout").
		Logger()
	if app.debug {
		logger = logger.Level(zerolog.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Local overrides, absence is fine
	godotenv.Load()

	var cfg Config
	configContents, err := os.ReadFile(app.config)
	switch {
	case err == nil:
		err = yaml.Unmarshal(configContents, &cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to parse configuration")
		}
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn().Str("path", app.config).Msg("no configuration file, using defaults")
	default:
		logger.Fatal().Err(err).Msg("failed to read configuration")
	}

	compiled, err := cfg.Compile(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to compile configuration")
	}
	defer compiled.Close()

	e := gin.New()
	e.Use(gin.Recovery())
	e.SetHTMLTemplate(router.Templates())

	var r = router.Router{
		Sessions:   compiled.Sessions,
		Currencies: compiled.Currencies,
		Cache:      &compiled.Cache,
		Service:    compiled.Client,
		Logger:     logger,
		Base:       e,
	}
	r.Register()

	logger.Info().Str("address", cfg.ListenAddress).Msg("checkout listening")
	err = e.Run(cfg.ListenAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
