/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package config resolves CLI settings from flags, MALLA_* environment
// variables and an optional .malla.{yaml,toml,json} file.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"bennypowers.dev/malla/fs"
	"bennypowers.dev/malla/mutate"
	"bennypowers.dev/malla/plan"
	"bennypowers.dev/malla/remote"
	"bennypowers.dev/malla/store"
	"bennypowers.dev/malla/store/objectstore"
	"bennypowers.dev/malla/store/postgres"
)

// Store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreS3       = "s3"
)

// Config is the resolved CLI configuration.
type Config struct {
	Store            string
	StoreDir         string
	Format           plan.Format
	DatabaseURL      string
	S3               objectstore.Config
	ValidatorURL     string
	CacheDir         string
	CacheTTL         time.Duration
	// CompletedThrough counts the semesters already taken; 0 means none.
	CompletedThrough int
	Verbose          bool
}

// Init sets defaults and reads the config file into v. An explicit file
// must exist; otherwise .malla.* is looked up in the working directory and
// then the home directory, and a missing file is not an error.
func Init(v *viper.Viper, file string) error {
	v.SetDefault("store", StoreFile)
	v.SetDefault("store-dir", "plans")
	v.SetDefault("format", string(plan.FormatJSON))
	v.SetDefault("validator-url", remote.DefaultTemplate)
	v.SetDefault("cache-ttl", 24*time.Hour)
	v.SetDefault("completed-through", 0)
	v.SetDefault("s3.bucket", "malla-plans")

	v.SetEnvPrefix("MALLA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName(".malla")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// Load decodes v into a Config.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Store:        strings.ToLower(v.GetString("store")),
		StoreDir:     v.GetString("store-dir"),
		Format:       plan.Format(strings.ToLower(v.GetString("format"))),
		DatabaseURL:  v.GetString("database-url"),
		ValidatorURL: v.GetString("validator-url"),
		CacheDir:     v.GetString("cache-dir"),
		CacheTTL:     v.GetDuration("cache-ttl"),
		S3: objectstore.Config{
			Endpoint:  v.GetString("s3.endpoint"),
			AccessKey: v.GetString("s3.access-key"),
			SecretKey: v.GetString("s3.secret-key"),
			Region:    v.GetString("s3.region"),
			Bucket:    v.GetString("s3.bucket"),
			Prefix:    v.GetString("s3.prefix"),
			UseSSL:    v.GetBool("s3.use-ssl"),
		},
		CompletedThrough: v.GetInt("completed-through"),
		Verbose:          v.GetBool("verbose"),
	}
	switch cfg.Format {
	case plan.FormatJSON, plan.FormatYAML, plan.FormatTOML:
	default:
		return Config{}, fmt.Errorf("%w: %s", plan.ErrUnknownFormat, cfg.Format)
	}
	switch cfg.Store {
	case StoreFile, StorePostgres, StoreS3:
	default:
		return Config{}, fmt.Errorf("unknown store %q: must be one of file, postgres, s3", cfg.Store)
	}
	if cfg.Store == StorePostgres && cfg.DatabaseURL == "" {
		return Config{}, errors.New("store postgres requires database-url")
	}
	return cfg, nil
}

// Logger returns a text logger on w, at debug level when verbose.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Guard returns the move guard for the student's progress.
func (c Config) Guard() mutate.Guard {
	return mutate.Guard{CompletedThrough: c.CompletedThrough - 1}
}

// OpenStore connects the configured backend. The returned close function
// releases its resources and is never nil.
func (c Config) OpenStore(ctx context.Context, fsys fs.FileSystem) (store.Store, func() error, error) {
	noop := func() error { return nil }
	switch c.Store {
	case StorePostgres:
		db, err := postgres.Open(ctx, postgres.DefaultConfig(c.DatabaseURL))
		if err != nil {
			return nil, noop, fmt.Errorf("opening postgres store: %w", err)
		}
		s := postgres.NewPlanStore(db)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, noop, errors.Join(err, db.Close())
		}
		return s, db.Close, nil
	case StoreS3:
		client, err := objectstore.NewClient(c.S3)
		if err != nil {
			return nil, noop, fmt.Errorf("opening s3 store: %w", err)
		}
		s := objectstore.New(client, c.S3)
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		s, err := store.NewFileStore(fsys, c.StoreDir, c.Format)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	}
}

// Validator builds the remote validation client with its caches.
func (c Config) Validator(fsys fs.FileSystem, logger *slog.Logger) (*remote.Client, error) {
	dir := c.CacheDir
	if dir == "" {
		dir = remote.DefaultCacheDir()
	}
	return remote.NewClient(c.ValidatorURL,
		remote.WithCache(remote.NewReportCache(64)),
		remote.WithDiskCache(remote.NewDiskCache(fsys, dir, c.CacheTTL)),
		remote.WithLogger(logger),
	)
}
