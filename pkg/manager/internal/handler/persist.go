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
	"fmt"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/snapshot"
)

const persistHandlerName = "Persist"

// PersistHandler writes this boot's snapshot for the next run.
type PersistHandler struct {
	store snapshot.Store
}

func NewPersistHandler(store snapshot.Store) *PersistHandler {
	return &PersistHandler{store: store}
}

func (h *PersistHandler) Name() string {
	return persistHandlerName
}

func (h *PersistHandler) Handle(ctx context.Context, st state.State) error {
	current := snapshot.FromInventory(st.Inventory())
	if err := h.store.Save(ctx, current); err != nil {
		return fmt.Errorf("save boot snapshot: %w", err)
	}
	logger.FromContext(ctx).Debug("Boot snapshot saved", "gpus", current.Len())
	return nil
}
