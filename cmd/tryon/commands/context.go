package commands

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/Hitansu2004/AI-TryOn-Studio/internal/infra"
	"github.com/Hitansu2004/AI-TryOn-Studio/internal/providers/tryonapi"
)

// AppContext holds what every command needs.
type AppContext struct {
	Config *infra.Config
	Logger infra.Logger
	Client *tryonapi.Client
}

// NewAppContext loads the env file and configuration and builds the backend
// client. A missing env file is not an error.
func NewAppContext(cmd *cli.Command) (*AppContext, error) {
	if err := godotenv.Load(cmd.String("env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	if api := cmd.String("api"); api != "" {
		cfg.TryOnAPIBaseURL = api
	}

	level := zerolog.WarnLevel
	if cmd.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	client := tryonapi.NewClient(tryonapi.Options{
		BaseURL:        cfg.TryOnAPIBaseURL,
		Logger:         &logger,
		RequestTimeout: cfg.TryOnAPITimeout,
	})
	return &AppContext{Config: cfg, Logger: logger, Client: client}, nil
}
