// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/opentrusty/autoop/internal/authz"
	"github.com/opentrusty/autoop/internal/command"
	"github.com/opentrusty/autoop/internal/config"
	"github.com/opentrusty/autoop/internal/discord"
	"github.com/opentrusty/autoop/internal/observability/logger"
	"github.com/opentrusty/autoop/internal/observability/metrics"
	"github.com/opentrusty/autoop/internal/observability/tracing"
	"github.com/opentrusty/autoop/internal/roles"
	transportHTTP "github.com/opentrusty/autoop/internal/transport/http"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

type flags struct {
	envFile     string
	configFile  string
	showVersion bool
}

func parseFlags(args []string) (flags, error) {
	var f flags
	set := pflag.NewFlagSet("autoop", pflag.ContinueOnError)
	set.StringVar(&f.envFile, "env-file", ".env", "dotenv file to read; a missing file is ignored")
	set.StringVarP(&f.configFile, "config", "c", "", "optional YAML file of configuration keys (lowest precedence)")
	set.BoolVar(&f.showVersion, "version", false, "print version and exit")
	if err := set.Parse(args); err != nil {
		return f, err
	}
	return f, nil
}

// configSource layers the process environment over the dotenv file over the YAML file
func configSource(f flags) (config.Source, error) {
	sources := []config.Source{config.EnvSource{}}

	if f.envFile != "" {
		values, err := godotenv.Read(f.envFile)
		switch {
		case err == nil:
			sources = append(sources, config.MapSource(values))
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read env file %s: %w", f.envFile, err)
		}
	}

	if f.configFile != "" {
		file, err := config.FileSource(f.configFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, file)
	}

	return config.Chain(sources...), nil
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if f.showVersion {
		fmt.Println("autoop", version)
		os.Exit(0)
	}

	// Load configuration
	src, err := configSource(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OTel log pipeline before the logger so the bridge has a target
	var logProvider *logger.Provider
	if cfg.Observability.OTELEnabled {
		logProvider, err = logger.NewProvider(ctx, cfg.Observability.ServiceName, cfg.Observability.ServiceVersion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize log exporter: %v\n", err)
		}
	}

	// Initialize logger
	log := logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTELEnabled: cfg.Observability.OTELEnabled && logProvider != nil,
		Provider:    logProvider,
	})
	log.Info("starting autoop", slog.String("version", version))
	log.Info("operator policy loaded",
		logger.RoleID(cfg.Operator.RoleID.String()),
		slog.String("role_name", cfg.Operator.RoleName),
		slog.String("allowed_users", strings.Join(cfg.Operator.AllowedUsers.Strings(), ",")),
	)

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		log.Error("failed to initialize tracer", logger.Error(err))
	}

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceVersion: cfg.Observability.ServiceVersion,
	}, cfg.Observability.ServiceName)
	if err != nil {
		log.Error("failed to initialize meter, metrics disabled", logger.Error(err))
		meter, _ = metrics.New(ctx, metrics.Config{}, cfg.Observability.ServiceName)
	}
	instruments, err := metrics.NewInstruments(meter)
	if err != nil {
		log.Error("failed to create instruments", logger.Error(err))
	}

	// Initialize services
	session, err := discord.NewSession(cfg.Discord, log)
	if err != nil {
		log.Error("failed to create discord session", logger.Error(err))
		os.Exit(1)
	}
	authzService := authz.NewService(cfg.Operator.Policy(), log)
	executor := roles.NewExecutor(discord.NewRoleManager(session, tracer), log, instruments)
	handler := command.NewHandler(cfg.Operator.RoleID, authzService, executor, tracer, instruments, log)
	bot := discord.New(session, cfg.Discord, handler, tracer, log)

	// Probe server
	var probes *transportHTTP.Server
	if cfg.Health.Addr != "" {
		probes = transportHTTP.NewServer(cfg.Health,
			transportHTTP.NewHandler(cfg.Observability.ServiceName, version, bot), log)
		if err := probes.Start(); err != nil {
			log.Error("failed to start probe server", logger.Error(err))
			os.Exit(1)
		}
	}

	if err := bot.Open(); err != nil {
		log.Error("failed to connect to discord", logger.Error(err))
		os.Exit(1)
	}

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := bot.Close(); err != nil {
		log.Error("failed to close discord session", logger.Error(err))
	}
	if probes != nil {
		if err := probes.Shutdown(shutdownCtx); err != nil {
			log.Error("probe server shutdown error", logger.Error(err))
		}
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown error", logger.Error(err))
	}
	if err := meter.Shutdown(shutdownCtx); err != nil {
		log.Error("meter shutdown error", logger.Error(err))
	}

	log.Info("stopped")
	if err := logProvider.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "log exporter shutdown error: %v\n", err)
	}
}
