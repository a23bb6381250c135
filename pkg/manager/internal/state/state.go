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

package state

import (
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

// State provides access to the facts and results of a single run.
type State interface {
	Inventory() *gpu.Inventory
	SetInventory(inv *gpu.Inventory)
	IsLaptop() bool
	SetLaptop(laptop bool)
	System() sysstate.State
	SetSystem(system sysstate.State)
	HasChanged() bool
	SetChanged(changed bool)
	Outcome() *plan.Outcome
	SetOutcome(out plan.Outcome)
	ApplyErr() error
	SetApplyErr(err error)
}

type state struct {
	inventory *gpu.Inventory
	laptop    bool
	system    sysstate.State
	changed   bool
	outcome   plan.Outcome
	applyErr  error
}

// New initializes the state for a single run.
func New() State {
	return &state{}
}

func (s *state) Inventory() *gpu.Inventory {
	return s.inventory
}

func (s *state) SetInventory(inv *gpu.Inventory) {
	s.inventory = inv
}

func (s *state) IsLaptop() bool {
	return s.laptop
}

func (s *state) SetLaptop(laptop bool) {
	s.laptop = laptop
}

func (s *state) System() sysstate.State {
	return s.system
}

func (s *state) SetSystem(system sysstate.State) {
	s.system = system
}

func (s *state) HasChanged() bool {
	return s.changed
}

func (s *state) SetChanged(changed bool) {
	s.changed = changed
}

// Outcome is shared: later handlers append actions and trace lines to it.
func (s *state) Outcome() *plan.Outcome {
	return &s.outcome
}

func (s *state) SetOutcome(out plan.Outcome) {
	s.outcome = out
}

func (s *state) ApplyErr() error {
	return s.applyErr
}

func (s *state) SetApplyErr(err error) {
	s.applyErr = err
}
