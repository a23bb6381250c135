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
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
)

const decideHandlerName = "Decide"

// DecideHandler runs the driver selection engine.
type DecideHandler struct{}

func NewDecideHandler() *DecideHandler {
	return &DecideHandler{}
}

func (h *DecideHandler) Name() string {
	return decideHandlerName
}

func (h *DecideHandler) Handle(ctx context.Context, st state.State) error {
	out := decision.Decide(decision.Facts{
		Inventory:  st.Inventory(),
		System:     st.System(),
		IsLaptop:   st.IsLaptop(),
		HasChanged: st.HasChanged(),
	})
	logTrace(logger.FromContext(ctx), out.Trace)
	st.SetOutcome(out)
	return nil
}
