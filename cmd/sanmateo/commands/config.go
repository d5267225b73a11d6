package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"covid19-scrapers/lib/alert"
	"covid19-scrapers/lib/configutil"
	"covid19-scrapers/lib/scrapers/sanmateo"

	"dario.cat/mergo"
)

const defaultConfigPath = "config.json5"

type RenderConfig struct {
	// "chrome" or "static"
	Mode           string `json:"mode"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	// shows the browser window, only useful when debugging locally
	Headful  bool   `json:"headful"`
	ExecPath string `json:"exec_path"`
}

type HttpConfig struct {
	UserAgent        string `json:"user_agent"`
	TimeoutSeconds   int    `json:"timeout_seconds"`
	BypassCloudflare bool   `json:"bypass_cloudflare"`
	// if set, every http exchange is written here
	DumpDir string `json:"dump_dir"`
}

type OutputConfig struct {
	// "json" or "table"
	Format string `json:"format"`
	// sqlite archive of successful runs, disabled if empty
	Db string `json:"db"`
	// document template, defaults to the built in one
	Template string `json:"template"`
}

type Config struct {
	LandingUrl string       `json:"landing_url"`
	Render     RenderConfig `json:"render"`
	Http       HttpConfig   `json:"http"`
	Output     OutputConfig `json:"output"`
	Alert      alert.Config `json:"alert"`
}

func defaultConfig() Config {
	return Config{
		LandingUrl: sanmateo.LandingPage,
		Render: RenderConfig{
			Mode:           "chrome",
			TimeoutSeconds: int(sanmateo.DefaultRenderTimeout / time.Second),
		},
		Http: HttpConfig{
			TimeoutSeconds: 30,
		},
		Output: OutputConfig{
			Format: "json",
		},
	}
}

// loadConfig reads the config at path over the defaults. a missing file
// is only an error if the path was asked for explicitly.
func loadConfig(path string, explicit bool) (Config, error) {
	config := defaultConfig()

	read, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return config, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	err = mergo.Merge(&config, read, mergo.WithOverride)
	if err != nil {
		return Config{}, fmt.Errorf("merge config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) validate() error {
	switch c.Render.Mode {
	case "chrome", "static":
	default:
		return fmt.Errorf("unknown render mode %q, expected chrome or static", c.Render.Mode)
	}
	switch c.Output.Format {
	case "json", "table":
	default:
		return fmt.Errorf("unknown output format %q, expected json or table", c.Output.Format)
	}
	if c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("render timeout must be positive, got %d", c.Render.TimeoutSeconds)
	}
	return nil
}
