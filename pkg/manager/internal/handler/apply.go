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

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/service"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
)

const applyHandlerName = "Apply"

// ApplyHandler executes the planned actions in order.
type ApplyHandler struct {
	executor service.Executor
	dryRun   bool
}

func NewApplyHandler(executor service.Executor, dryRun bool) *ApplyHandler {
	return &ApplyHandler{executor: executor, dryRun: dryRun}
}

func (h *ApplyHandler) Name() string {
	return applyHandlerName
}

// Handle keeps going after a failed action. Failures are joined into the
// state so the snapshot is still persisted.
func (h *ApplyHandler) Handle(ctx context.Context, st state.State) error {
	log := logger.FromContext(ctx)
	var errs []error
	for _, action := range st.Outcome().Actions {
		args := actionArgs(action)
		if h.dryRun {
			log.Info("Dry run, action skipped", args...)
			continue
		}
		if err := h.executor.Apply(ctx, action); err != nil {
			log.Error("Action failed", append(args, logger.SlogErr(err))...)
			errs = append(errs, fmt.Errorf("%s: %w", action.Kind, err))
			continue
		}
		log.Debug("Action applied", args...)
	}
	st.SetApplyErr(errors.Join(errs...))
	return nil
}

func actionArgs(action plan.Action) []any {
	args := []any{"action", action.Kind.String()}
	switch action.Kind {
	case plan.SelectAlternative:
		args = append(args, "alternative", action.Alternative.Path)
	case plan.RemoveXorg, plan.RegenerateXorg:
		args = append(args, "path", action.Path)
	}
	return args
}
