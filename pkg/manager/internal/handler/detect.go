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
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/snapshot"
)

const detectHandlerName = "Detect"

// DetectHandler compares this boot's GPUs with the previous boot.
type DetectHandler struct {
	store snapshot.Store
}

func NewDetectHandler(store snapshot.Store) *DetectHandler {
	return &DetectHandler{store: store}
}

func (h *DetectHandler) Name() string {
	return detectHandlerName
}

// Handle treats an unreadable previous snapshot as a missing one.
func (h *DetectHandler) Handle(ctx context.Context, st state.State) error {
	log := logger.FromContext(ctx)
	previous, err := h.store.Load(ctx)
	if err != nil {
		log.Warn("Previous boot snapshot unreadable", logger.SlogErr(err))
		previous = nil
	}
	current := snapshot.FromInventory(st.Inventory())
	changed := snapshot.HasChanged(previous, current)
	log.Debug("Boot snapshot compared", "previous", previous != nil, "gpus", current.Len(), "changed", changed)
	st.SetChanged(changed)
	return nil
}
