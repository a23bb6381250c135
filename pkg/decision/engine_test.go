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
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"k8s.io/utils/ptr"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

const (
	mesaPath    = "/usr/lib/x86_64-linux-gnu/mesa/ld.so.conf"
	nvidiaPath  = "/usr/lib/nvidia-331/ld.so.conf"
	primePath   = "/usr/lib/nvidia-331-prime/ld.so.conf"
	fglrxPath   = "/usr/lib/fglrx/ld.so.conf"
	pxpressPath = "/usr/lib/pxpress/ld.so.conf"
)

var (
	intelCard  = "8086:0166;0000:00:02:0;1"
	nvidiaCard = "10de:0fd1;0000:01:00:0;0"
	amdCard    = "1002:6600;0000:01:00:0;0"
)

func inventory(lines ...string) *gpu.Inventory {
	text := ""
	for _, line := range lines {
		text += line + "\n"
	}
	return gpu.ParseString(text)
}

func alternatives(active string, catalog ...string) sysstate.AlternativeState {
	return sysstate.NewAlternativeState(catalog, active)
}

func modules(loaded ...string) sysstate.ModuleState {
	return sysstate.NewModuleState(loaded, nil)
}

func selectedPath(out plan.Outcome) string {
	if out.Selected == nil {
		return ""
	}
	return out.Selected.Path
}

func hasLine(out plan.Outcome, line string) bool {
	return slices.Contains(out.Trace, line)
}

func TestDecideScenarios(t *testing.T) {
	intelBusID, _ := gpu.ParseBusID("0000:00:02.0")
	discreteBusID, _ := gpu.ParseBusID("0000:01:00.0")

	tests := []struct {
		name      string
		facts     Facts
		selected  string
		xorg      plan.XorgRequirement
		installer bool
		line      string
	}{
		{
			name: "single nvidia desktop enables nvidia",
			facts: Facts{
				Inventory:  inventory("10de:0fd1;0000:01:00:0;1"),
				System:     sysstate.State{Modules: modules("nvidia"), Alternatives: alternatives(mesaPath, mesaPath, nvidiaPath)},
				HasChanged: true,
			},
			selected: nvidiaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + nvidiaPath,
		},
		{
			name: "single nvidia desktop already enabled",
			facts: Facts{
				Inventory: inventory("10de:0fd1;0000:01:00:0;1"),
				System:    sysstate.State{Modules: modules("nvidia"), Alternatives: alternatives(nvidiaPath, mesaPath, nvidiaPath)},
			},
			xorg: plan.XorgRequirement{Mode: plan.XorgNone},
			line: MsgAlreadyEnabled,
		},
		{
			name: "prime laptop steady state requires dual config",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System: sysstate.State{
					Modules:      modules("nvidia", "i915"),
					Alternatives: alternatives(primePath, mesaPath, nvidiaPath, primePath),
					Hybrid:       &sysstate.HybridState{PrimeEnabled: ptr.To(true), DiscretePowered: ptr.To(true)},
				},
				IsLaptop: true,
			},
			xorg: plan.XorgRequirement{
				Mode: plan.XorgDual,
				Sections: []plan.Section{
					{Identifier: "intel", Driver: "modesetting", BusID: intelBusID},
					{Identifier: "nvidia", Driver: "nvidia", BusID: discreteBusID},
				},
			},
			line: MsgAlreadyEnabled,
		},
		{
			name: "removed nvidia card falls back to mesa",
			facts: Facts{
				Inventory:  inventory(intelCard),
				System:     sysstate.State{Modules: modules("i915"), Alternatives: alternatives(nvidiaPath, mesaPath, nvidiaPath)},
				HasChanged: true,
			},
			selected: mesaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     MsgSingleCard,
		},
		{
			name: "powerxpress laptop steady state requires dual config",
			facts: Facts{
				Inventory: inventory(intelCard, amdCard),
				System: sysstate.State{
					Modules:      modules("fglrx", "i915"),
					Alternatives: alternatives(fglrxPath, mesaPath, fglrxPath, pxpressPath),
					Hybrid:       &sysstate.HybridState{},
				},
				IsLaptop: true,
			},
			xorg: plan.XorgRequirement{
				Mode: plan.XorgDual,
				Sections: []plan.Section{
					{Identifier: "intel", Driver: "intel", BusID: intelBusID},
					{Identifier: "amd", Driver: "fglrx", BusID: discreteBusID},
				},
			},
			line: MsgAlreadyEnabled,
		},
		{
			name: "prime laptop with discrete gpu powered off falls back to mesa",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System: sysstate.State{
					Modules:      modules("i915"),
					Alternatives: alternatives(primePath, mesaPath, nvidiaPath, primePath),
					Hybrid:       &sysstate.HybridState{PrimeEnabled: ptr.To(true), DiscretePowered: ptr.To(false)},
				},
				IsLaptop: true,
			},
			selected: mesaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + mesaPath,
		},
		{
			name: "prime laptop falls back to mesa after nvidia unload",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System: sysstate.State{
					Modules:      sysstate.NewModuleState([]string{"i915"}, []string{"nvidia"}),
					Alternatives: alternatives(primePath, mesaPath, nvidiaPath, primePath),
					Hybrid:       &sysstate.HybridState{PrimeEnabled: ptr.To(false)},
				},
				IsLaptop: true,
			},
			selected: mesaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + mesaPath,
		},
		{
			name: "powerxpress laptop falls back to mesa after fglrx unload",
			facts: Facts{
				Inventory: inventory(intelCard, amdCard),
				System: sysstate.State{
					Modules:      sysstate.NewModuleState([]string{"i915"}, []string{"fglrx"}),
					Alternatives: alternatives(pxpressPath, mesaPath, fglrxPath, pxpressPath),
					Hybrid:       &sysstate.HybridState{},
				},
				IsLaptop: true,
			},
			selected: mesaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + mesaPath,
		},
		{
			name: "prime laptop with prime disengaged uses nvidia directly",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System: sysstate.State{
					Modules:      modules("nvidia", "i915"),
					Alternatives: alternatives(primePath, mesaPath, nvidiaPath, primePath),
					Hybrid:       &sysstate.HybridState{PrimeEnabled: ptr.To(false)},
				},
				IsLaptop: true,
			},
			selected: nvidiaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + nvidiaPath,
		},
		{
			name: "prime laptop switches from plain nvidia to prime",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System: sysstate.State{
					Modules:      modules("nvidia", "i915"),
					Alternatives: alternatives(nvidiaPath, mesaPath, nvidiaPath, primePath),
					Hybrid:       &sysstate.HybridState{PrimeEnabled: ptr.To(true)},
				},
				IsLaptop: true,
			},
			selected: primePath,
			xorg: plan.XorgRequirement{
				Mode: plan.XorgDual,
				Sections: []plan.Section{
					{Identifier: "intel", Driver: "modesetting", BusID: intelBusID},
					{Identifier: "nvidia", Driver: "nvidia", BusID: discreteBusID},
				},
			},
			line: "Selecting " + primePath,
		},
		{
			name: "prime laptop without discrete driver does nothing",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System: sysstate.State{
					Modules:      modules("i915", "nouveau"),
					Alternatives: alternatives(mesaPath, mesaPath, nvidiaPath, primePath),
					Hybrid:       &sysstate.HybridState{},
				},
				IsLaptop: true,
			},
			xorg: plan.XorgRequirement{Mode: plan.XorgNone},
			line: MsgHybridNothing,
		},
		{
			name: "powerxpress gap keeps mesa while discrete gpu is down",
			facts: Facts{
				Inventory: inventory(intelCard, amdCard),
				System: sysstate.State{
					Modules:      modules("fglrx", "i915"),
					Alternatives: alternatives(mesaPath, mesaPath, fglrxPath, pxpressPath),
					Hybrid:       &sysstate.HybridState{DiscretePxDisabled: ptr.To(true)},
				},
				IsLaptop: true,
			},
			xorg: plan.XorgRequirement{Mode: plan.XorgNone},
			line: MsgNothingToDo,
		},
		{
			name: "powerxpress laptop enables fglrx",
			facts: Facts{
				Inventory: inventory(intelCard, amdCard),
				System: sysstate.State{
					Modules:      modules("fglrx", "i915"),
					Alternatives: alternatives(mesaPath, mesaPath, fglrxPath, pxpressPath),
					Hybrid:       &sysstate.HybridState{DiscretePxDisabled: ptr.To(false)},
				},
				IsLaptop: true,
			},
			selected: fglrxPath,
			xorg: plan.XorgRequirement{
				Mode: plan.XorgDual,
				Sections: []plan.Section{
					{Identifier: "intel", Driver: "intel", BusID: intelBusID},
					{Identifier: "amd", Driver: "fglrx", BusID: discreteBusID},
				},
			},
			line: "Selecting " + fglrxPath,
		},
		{
			name: "single amd card replaces pxpress with fglrx",
			facts: Facts{
				Inventory: inventory("1002:6600;0000:01:00:0;1"),
				System:    sysstate.State{Modules: modules("fglrx"), Alternatives: alternatives(pxpressPath, mesaPath, fglrxPath, pxpressPath)},
			},
			selected: fglrxPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + fglrxPath,
		},
		{
			name: "installer detected leaves xorg unmanaged",
			facts: Facts{
				Inventory: inventory("10de:0fd1;0000:01:00:0;1"),
				System:    sysstate.State{Modules: modules("nvidia"), Alternatives: alternatives(mesaPath, mesaPath)},
			},
			xorg:      plan.XorgRequirement{Mode: plan.XorgUnmanaged},
			installer: true,
			line:      MsgInstallerFound,
		},
		{
			name:  "no gpus leaves xorg unmanaged",
			facts: Facts{Inventory: inventory()},
			xorg:  plan.XorgRequirement{Mode: plan.XorgUnmanaged},
			line:  MsgNothingToDo,
		},
		{
			name: "no gpus with nvidia enabled falls back to mesa",
			facts: Facts{
				Inventory: inventory(),
				System:    sysstate.State{Modules: modules("i915"), Alternatives: alternatives(nvidiaPath, mesaPath, nvidiaPath)},
			},
			selected: mesaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgUnmanaged},
			line:     "Selecting " + mesaPath,
		},
		{
			name: "desktop with intel boot card enables loaded nvidia",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System:    sysstate.State{Modules: modules("i915", "nvidia"), Alternatives: alternatives(mesaPath, mesaPath, nvidiaPath)},
			},
			selected: nvidiaPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + nvidiaPath,
		},
		{
			name: "desktop with intel boot card enables loaded fglrx",
			facts: Facts{
				Inventory: inventory(intelCard, amdCard),
				System:    sysstate.State{Modules: modules("i915", "fglrx"), Alternatives: alternatives(mesaPath, mesaPath, fglrxPath)},
			},
			selected: fglrxPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + fglrxPath,
		},
		{
			name: "desktop with intel boot card keeps enabled nvidia",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System:    sysstate.State{Modules: modules("i915", "nvidia"), Alternatives: alternatives(nvidiaPath, mesaPath, nvidiaPath)},
			},
			xorg: plan.XorgRequirement{Mode: plan.XorgNone},
			line: MsgAlreadyEnabled,
		},
		{
			name: "two amd cards follow the boot card",
			facts: Facts{
				Inventory: inventory("1002:6600;0000:01:00:0;1", "1002:6601;0000:02:00:0;0"),
				System:    sysstate.State{Modules: modules("fglrx"), Alternatives: alternatives(mesaPath, mesaPath, fglrxPath)},
			},
			selected: fglrxPath,
			xorg:     plan.XorgRequirement{Mode: plan.XorgNone},
			line:     "Selecting " + fglrxPath,
		},
		{
			name: "desktop with intel boot card and no discrete driver does nothing",
			facts: Facts{
				Inventory: inventory(intelCard, nvidiaCard),
				System:    sysstate.State{Modules: modules("i915"), Alternatives: alternatives(mesaPath, mesaPath, nvidiaPath)},
			},
			xorg: plan.XorgRequirement{Mode: plan.XorgNone},
			line: MsgNothingToDo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Decide(tt.facts)
			if got := selectedPath(out); got != tt.selected {
				t.Fatalf("selected %q, want %q", got, tt.selected)
			}
			if diff := cmp.Diff(tt.xorg, out.Xorg); diff != "" {
				t.Fatalf("xorg requirement mismatch (-want +got):\n%s", diff)
			}
			if out.ProprietaryInstallerDetected != tt.installer {
				t.Fatalf("installer detected %v, want %v", out.ProprietaryInstallerDetected, tt.installer)
			}
			if !hasLine(out, tt.line) {
				t.Fatalf("trace misses %q:\n%v", tt.line, out.Trace)
			}
			if out.HasChanged != tt.facts.HasChanged {
				t.Fatalf("HasChanged %v, want %v", out.HasChanged, tt.facts.HasChanged)
			}
		})
	}
}

func TestDecideTraceFacts(t *testing.T) {
	out := Decide(Facts{
		Inventory: inventory(intelCard, nvidiaCard),
		System: sysstate.State{
			Modules:      sysstate.NewModuleState([]string{"i915"}, []string{"nvidia"}),
			Alternatives: alternatives(primePath, mesaPath, primePath),
			Hybrid:       &sysstate.HybridState{DiscretePowered: ptr.To(false)},
		},
		IsLaptop:   true,
		HasChanged: true,
	})

	want := []string{
		"Is laptop? yes",
		"Has Intel? yes",
		"Has AMD? no",
		"Has NVIDIA? yes",
		"Is nvidia loaded? no",
		"Is i915 loaded? yes",
		"Was nvidia unloaded? yes",
		"Was fglrx unloaded? no",
		"Is prime enabled? yes",
		"Is mesa enabled? no",
		"Is the discrete GPU powered? no",
		MsgChanged,
	}
	for _, line := range want {
		if !hasLine(out, line) {
			t.Fatalf("trace misses %q:\n%v", line, out.Trace)
		}
	}
	if hasLine(out, MsgSingleCard) {
		t.Fatalf("unexpected %q for two cards", MsgSingleCard)
	}
}

func TestDecideFallbackSafety(t *testing.T) {
	proprietary := []string{nvidiaPath, primePath, fglrxPath, pxpressPath}
	inventories := [][]string{
		{},
		{intelCard},
		{"10de:0fd1;0000:01:00:0;1"},
		{"1002:6600;0000:01:00:0;1"},
		{intelCard, nvidiaCard},
		{intelCard, amdCard},
	}
	moduleSets := [][]string{nil, {"i915"}, {"nvidia"}, {"fglrx"}, {"nouveau", "i915"}, {"i915", "nvidia", "fglrx"}}
	unloadSets := [][]string{nil, {"nvidia"}, {"fglrx"}}

	for _, active := range proprietary {
		for _, cards := range inventories {
			for _, loaded := range moduleSets {
				for _, unloaded := range unloadSets {
					for _, laptop := range []bool{false, true} {
						for _, primeOn := range []bool{false, true} {
							fallbackSafetyCase(t, active, cards, loaded, unloaded, laptop, primeOn)
						}
					}
				}
			}
		}
	}
}

func fallbackSafetyCase(t *testing.T, active string, cards, loaded, unloaded []string, laptop, primeOn bool) {
	t.Helper()
	facts := Facts{
		Inventory: inventory(cards...),
		System: sysstate.State{
			Modules:      sysstate.NewModuleState(loaded, unloaded),
			Alternatives: alternatives(active, mesaPath, nvidiaPath, primePath, fglrxPath, pxpressPath),
			Hybrid:       &sysstate.HybridState{PrimeEnabled: ptr.To(primeOn)},
		},
		IsLaptop: laptop,
	}
	out := Decide(facts)

	selections := 0
	for _, action := range out.Actions {
		if action.Kind == plan.SelectAlternative {
			selections++
		}
	}
	if selections > 1 {
		t.Fatalf("%+v: %d selections", facts, selections)
	}

	effective := facts.System.Alternatives.ActiveKind()
	if out.Selected != nil {
		if out.Selected.Path == active {
			t.Fatalf("%+v: selected the active alternative", facts)
		}
		effective = out.Selected.Kind
	}
	if effective.IsProprietary() && !facts.System.Modules.IsLoaded(effective.Module()) {
		t.Fatalf("%v enabled without %s loaded, cards %v, modules %v, unloaded %v, laptop %v, prime %v\n%v",
			effective, effective.Module(), cards, loaded, unloaded, laptop, primeOn, out.Trace)
	}
}

func TestConclude(t *testing.T) {
	out := plan.Outcome{}
	Conclude(&out)
	if !hasLine(out, MsgNoChange) {
		t.Fatalf("trace misses %q", MsgNoChange)
	}

	changed := plan.Outcome{HasChanged: true}
	Conclude(&changed)
	if hasLine(changed, MsgNoChange) {
		t.Fatalf("unexpected %q for a changed system", MsgNoChange)
	}

	acted := plan.Outcome{}
	acted.Add(plan.Remove("/etc/X11/xorg.conf"))
	Conclude(&acted)
	if hasLine(acted, MsgNoChange) {
		t.Fatalf("unexpected %q after an action", MsgNoChange)
	}
}
