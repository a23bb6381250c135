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

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/decision"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/service"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/xorg"
)

const reconcileHandlerName = "Reconcile"

// ReconcileHandler plans xorg.conf changes for the chosen driver.
type ReconcileHandler struct {
	store service.XorgStore
	path  string
}

func NewReconcileHandler(store service.XorgStore, path string) *ReconcileHandler {
	return &ReconcileHandler{store: store, path: path}
}

func (h *ReconcileHandler) Name() string {
	return reconcileHandlerName
}

func (h *ReconcileHandler) Handle(ctx context.Context, st state.State) error {
	log := logger.FromContext(ctx)
	out := st.Outcome()
	start := len(out.Trace)

	if out.Xorg.Mode != plan.XorgUnmanaged {
		existing, err := h.store.Load()
		if err != nil {
			// Treated as stale: removed, and regenerated when required.
			log.Warn("Existing xorg.conf unreadable", logger.SlogErr(err))
			existing = &xorg.Config{}
		}

		res := xorg.Reconcile(out.Xorg, existing, h.path)
		for _, line := range res.Trace {
			out.Log(line)
		}
		for _, action := range res.Actions {
			out.Add(action)
		}
	}

	decision.Conclude(out)
	logTrace(log, out.Trace[start:])
	return nil
}
