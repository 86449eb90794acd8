package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/codeGROOVE-dev/zipTZ/pkg/gemini"
	"github.com/codeGROOVE-dev/zipTZ/pkg/zippopotam"
)

const version = "1.0.0"

// config is the resolved CLI configuration: flags over ZIPTZ_* variables
// over the config file.
type config struct {
	MapsKey       string
	GeminiKey     string
	GeminiModel   string
	GCPProject    string
	CacheDir      string
	Logo          string
	ZippopotamURL string
	CacheTTL      time.Duration
	NoCache       bool
	Once          bool
	Verbose       bool
}

// queryError reports a failed --once lookup. Its message was already shown.
type queryError struct {
	err error
}

func (e *queryError) Error() string { return e.err.Error() }

func (e *queryError) Unwrap() error { return e.err }

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "ziptz [ZIP]",
		Short: "Show the live local time for a US ZIP code",
		Long: `ziptz looks up the city, state and IANA time zone of a US ZIP code and
shows a clock for that zone that refreshes every second.

Type a ZIP code at the prompt to switch, "clear" to reset the card and
"quit" or Ctrl-D to leave.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(v)
			if cfg.Once && len(args) == 0 {
				return errors.New("--once needs a ZIP code argument")
			}
			return run(cmd.Context(), cfg, args, in, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/ziptz/config.yaml)")
	flags.String("maps-key", "", "Google Maps API key (or set GOOGLE_MAPS_API_KEY)")
	flags.String("gemini-key", "", "Gemini API key (or set GEMINI_API_KEY)")
	flags.String("gemini-model", gemini.DefaultModel, "Gemini model to use (or set GEMINI_MODEL)")
	flags.String("gcp-project", "", "GCP project ID for Vertex AI (or set GCP_PROJECT)")
	flags.String("cache-dir", "", "cache directory (default user cache dir)")
	flags.Bool("no-cache", false, "disable the lookup cache")
	flags.Duration("cache-ttl", 30*24*time.Hour, "how long cached lookups stay valid")
	flags.String("logo", filepath.Join("img", "logo.png"), "PNG logo shown next to the title")
	flags.Bool("once", false, "print one card for the given ZIP code and exit")
	flags.Bool("verbose", false, "enable verbose logging")
	flags.String("zippopotam-url", zippopotam.DefaultBaseURL, "Zippopotam.us API base URL")
	if err := flags.MarkHidden("zippopotam-url"); err != nil {
		panic(err)
	}

	return cmd
}

// initConfig binds flags and environment variables to v and reads the config file.
func initConfig(v *viper.Viper, cmd *cobra.Command, cfgFile string) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	v.SetEnvPrefix("ZIPTZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Variables shared with other tools.
	for key, env := range map[string]string{
		"maps-key":     "GOOGLE_MAPS_API_KEY",
		"gemini-key":   "GEMINI_API_KEY",
		"gemini-model": "GEMINI_MODEL",
		"gcp-project":  "GCP_PROJECT",
		"cache-dir":    "CACHE_DIR",
	} {
		envKey := "ZIPTZ_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
		if err := v.BindEnv(key, envKey, env); err != nil {
			return fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "ziptz"))
		} else if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "ziptz"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func loadConfig(v *viper.Viper) config {
	return config{
		MapsKey:       v.GetString("maps-key"),
		GeminiKey:     v.GetString("gemini-key"),
		GeminiModel:   v.GetString("gemini-model"),
		GCPProject:    v.GetString("gcp-project"),
		CacheDir:      v.GetString("cache-dir"),
		CacheTTL:      v.GetDuration("cache-ttl"),
		NoCache:       v.GetBool("no-cache"),
		Logo:          v.GetString("logo"),
		Once:          v.GetBool("once"),
		Verbose:       v.GetBool("verbose"),
		ZippopotamURL: v.GetString("zippopotam-url"),
	}
}
