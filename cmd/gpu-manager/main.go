/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/deckhouse/deckhouse/pkg/log"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/spf13/pflag"
	utilexec "k8s.io/utils/exec"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], readConfig)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{})).
			Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogOutput, cfg.LogDebugVerbosity)
	logger.SetDefaultLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, log, cfg, realManagerFactory); err != nil {
		log.Error("gpu-manager failed", logger.SlogErr(err))
		os.Exit(1)
	}
}

func realManagerFactory(cfg manager.Config, log *log.Logger) runner {
	return manager.New(cfg, utilexec.New(), log)
}

func readConfig(path string, target any) error {
	if path == "" {
		return cleanenv.ReadEnv(target)
	}
	return cleanenv.ReadConfig(path, target)
}
