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

package decision

import (
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

// Facts is the flat, read-only input of the engine.
type Facts struct {
	Inventory  *gpu.Inventory
	System     sysstate.State
	IsLaptop   bool
	HasChanged bool
}

func (f Facts) loaded(module string) bool {
	return f.System.Modules.IsLoaded(module)
}

func (f Facts) unloaded(module string) bool {
	return f.System.Modules.WasUnloaded(module)
}

func (f Facts) active() sysstate.DriverKind {
	return f.System.Alternatives.ActiveKind()
}
