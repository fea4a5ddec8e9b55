package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Settings holds everything the CLI can be configured with. None of it changes
// the scoring contract; it only selects collaborators and output verbosity.
type Settings struct {
	Sampling struct {
		MaxFrames int    // cap on sampled frames
		Mode      string // even or first
	}

	Face struct {
		Locator string // auto, process, cascade or none
		Command string // locator worker command line for the process locator
		Cascade string // Haar cascade XML for the cascade locator
		Engines int    // parallel locator instances
	}

	FFmpeg struct {
		Path      string
		ProbePath string
	}

	DB struct {
		URL string // empty disables history persistence
	}

	Log struct {
		Level string
	}
}

// Defaults registers default values on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("sampling.maxframes", 80)
	v.SetDefault("sampling.mode", "even")
	v.SetDefault("face.locator", "auto")
	v.SetDefault("face.command", "")
	v.SetDefault("face.cascade", "haarcascade_frontalface_default.xml")
	v.SetDefault("face.engines", 1)
	v.SetDefault("ffmpeg.path", "ffmpeg")
	v.SetDefault("ffmpeg.probepath", "ffprobe")
	v.SetDefault("db.url", "")
	v.SetDefault("log.level", "info")
}

// New returns a viper instance with defaults and DEEPSCAN_* environment binding.
func New() *viper.Viper {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix("deepscan")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional config file and decodes the merged settings.
func Load(v *viper.Viper, path string) (*Settings, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	s := &Settings{}
	s.Sampling.MaxFrames = v.GetInt("sampling.maxframes")
	s.Sampling.Mode = strings.ToLower(v.GetString("sampling.mode"))
	s.Face.Locator = strings.ToLower(v.GetString("face.locator"))
	s.Face.Command = v.GetString("face.command")
	s.Face.Cascade = v.GetString("face.cascade")
	s.Face.Engines = v.GetInt("face.engines")
	s.FFmpeg.Path = v.GetString("ffmpeg.path")
	s.FFmpeg.ProbePath = v.GetString("ffmpeg.probepath")
	s.DB.URL = v.GetString("db.url")
	s.Log.Level = v.GetString("log.level")

	if s.DB.URL == "" {
		s.DB.URL = postgresFromEnv()
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate rejects settings that would make a run meaningless.
func (s *Settings) Validate() error {
	if s.Sampling.MaxFrames < 5 {
		return fmt.Errorf("sampling.maxframes must be >= 5, got %d", s.Sampling.MaxFrames)
	}
	switch s.Sampling.Mode {
	case "even", "first":
	default:
		return fmt.Errorf("sampling.mode must be 'even' or 'first', got %q", s.Sampling.Mode)
	}
	switch s.Face.Locator {
	case "auto", "cascade", "none":
	case "process":
		if strings.TrimSpace(s.Face.Command) == "" {
			return fmt.Errorf("face.locator 'process' needs face.command")
		}
	default:
		return fmt.Errorf("face.locator must be one of auto, process, cascade, none; got %q", s.Face.Locator)
	}
	if s.Face.Engines < 1 {
		s.Face.Engines = 1
	}
	return nil
}

// postgresFromEnv builds a connection string from POSTGRES_* variables when
// POSTGRES_HOST is set, and returns "" otherwise.
func postgresFromEnv() string {
	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"), host, port, os.Getenv("POSTGRES_DB"))
}
