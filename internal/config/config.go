package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rakunlabs/chu"
	"github.com/rakunlabs/chu/loader/loaderenv"
	"github.com/rakunlabs/logi"
	"github.com/rakunlabs/tell"

	"github.com/woped/model-transformer/internal/transform/errs"
)

var Service = ""

type Config struct {
	LogLevel string `cfg:"log_level,no_prefix" default:"info"`

	Server     Server     `cfg:"server"`
	TokenCheck TokenCheck `cfg:"token_check"`

	// ForceStdXML mirrors the FORCE_STD_XML environment variable. The value
	// is consumed by the deployment tooling; the service only requires it to
	// be present at startup.
	ForceStdXML string `cfg:"-"`

	Telemetry tell.Config `cfg:"telemetry,noprefix"`
}

type Server struct {
	BasePath string `cfg:"base_path"`

	Port string `cfg:"port" default:"8080"`
	Host string `cfg:"host"`
}

// TokenCheck configures the external request token check. The check is
// active only when the service runs in a managed environment, signalled by
// the K_SERVICE environment variable.
type TokenCheck struct {
	URL string `cfg:"url" default:"https://europe-west3-woped-422510.cloudfunctions.net/checkTokens"`

	// Enabled is derived from K_SERVICE at load time.
	Enabled bool `cfg:"-"`
}

func Load(ctx context.Context, path string) (*Config, error) {
	var cfg Config
	if err := chu.Load(ctx, path, &cfg, chu.WithLoaderOption(loaderenv.New(loaderenv.WithPrefix("MODEL_TRANSFORMER_")))); err != nil {
		return nil, err
	}

	forceStdXML, ok := os.LookupEnv("FORCE_STD_XML")
	if !ok {
		return nil, &errs.MissingEnvironmentVariable{Name: "FORCE_STD_XML"}
	}
	cfg.ForceStdXML = forceStdXML

	cfg.TokenCheck.Enabled = os.Getenv("K_SERVICE") != ""

	if err := logi.SetLogLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("set log level %s: %w", cfg.LogLevel, err)
	}

	slog.Info("loaded configuration", "config", chu.MarshalMap(cfg))

	return &cfg, nil
}
