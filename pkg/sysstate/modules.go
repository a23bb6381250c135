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

package sysstate

import (
	"bufio"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"
)

// Kernel modules the decision engine cares about.
const (
	ModuleNvidia  = "nvidia"
	ModuleNouveau = "nouveau"
	ModuleFglrx   = "fglrx"
	ModuleRadeon  = "radeon"
	ModuleAMDGPU  = "amdgpu"
	ModuleI915    = "i915"
	ModuleI915BPO = "i915_bpo"
)

// TrackedModules is the order in which module state is traced.
var TrackedModules = []string{
	ModuleI915,
	ModuleI915BPO,
	ModuleRadeon,
	ModuleAMDGPU,
	ModuleFglrx,
	ModuleNouveau,
	ModuleNvidia,
}

// unloadMarkers lists kernel log fragments that a driver family prints when
// its module is removed. Families not listed use "<module>: module unloaded".
var unloadMarkers = map[string][]string{
	ModuleNvidia: {"nvidia: module unloaded", "NVRM: unloading"},
	ModuleFglrx:  {"[fglrx] module unloaded"},
}

// ModuleState is the loaded and recently unloaded kernel module view.
type ModuleState struct {
	loaded   sets.Set[string]
	unloaded sets.Set[string]
}

// NewModuleState builds a module state from explicit lists.
func NewModuleState(loaded, unloaded []string) ModuleState {
	return ModuleState{
		loaded:   sets.New(loaded...),
		unloaded: sets.New(unloaded...).Difference(sets.New(loaded...)),
	}
}

// IsLoaded reports whether the module is currently loaded.
func (m ModuleState) IsLoaded(name string) bool {
	return m.loaded.Has(name)
}

// WasUnloaded reports whether the module was loaded and then removed during
// this boot.
func (m ModuleState) WasUnloaded(name string) bool {
	return m.unloaded.Has(name)
}

// Loaded returns the sorted loaded module names.
func (m ModuleState) Loaded() []string {
	return sets.List(m.loaded)
}

// ParseModules returns the module names from /proc/modules formatted text.
// "i915_bpo" style names are kept as is; dashes are normalized to
// underscores the way the kernel reports them.
func ParseModules(text string) []string {
	var names []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		names = append(names, strings.ReplaceAll(fields[0], "-", "_"))
	}
	return names
}

// ScanUnloaded returns the tracked modules whose unload marker appears in the
// kernel log text.
func ScanUnloaded(kernelLog string) []string {
	if kernelLog == "" {
		return nil
	}
	var found []string
	for _, module := range TrackedModules {
		for _, marker := range markersFor(module) {
			if strings.Contains(kernelLog, marker) {
				found = append(found, module)
				break
			}
		}
	}
	return found
}

func markersFor(module string) []string {
	if markers, ok := unloadMarkers[module]; ok {
		return markers
	}
	return []string{fmt.Sprintf("%s: module unloaded", module)}
}
