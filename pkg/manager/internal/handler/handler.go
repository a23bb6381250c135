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

package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
)

// Handler performs a single stage of a run.
type Handler interface {
	Name() string
	Handle(ctx context.Context, st state.State) error
}

// ErrFatalInput marks an unreadable required input. Nothing is persisted
// after it.
var ErrFatalInput = errors.New("fatal input error")

// FatalInput wraps err as a fatal input error.
func FatalInput(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFatalInput, err)
}

// logTrace emits trace lines as info messages.
func logTrace(log *slog.Logger, lines []string) {
	for _, line := range lines {
		log.Info(line)
	}
}
