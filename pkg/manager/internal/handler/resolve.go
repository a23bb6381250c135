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

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/service"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
)

const resolveHandlerName = "Resolve"

// ResolveHandler reads modules, alternatives and hybrid power state.
type ResolveHandler struct {
	resolver service.SystemResolver
}

func NewResolveHandler(resolver service.SystemResolver) *ResolveHandler {
	return &ResolveHandler{resolver: resolver}
}

func (h *ResolveHandler) Name() string {
	return resolveHandlerName
}

func (h *ResolveHandler) Handle(ctx context.Context, st state.State) error {
	system := h.resolver.Resolve(ctx, st.IsLaptop())
	log := logger.FromContext(ctx)
	for _, warning := range system.Warnings {
		log.Warn("Optional input unavailable", "reason", warning)
	}
	log.Debug("System state resolved",
		"loaded", system.Modules.Loaded(),
		"alternatives", len(system.Alternatives.Catalog),
		"active", system.Alternatives.ActiveKind().String())
	st.SetSystem(system)
	return nil
}
