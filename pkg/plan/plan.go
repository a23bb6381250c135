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

package plan

import (
	"encoding/json"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

// ActionKind tags an Action.
type ActionKind int

const (
	NoAction ActionKind = iota
	SelectAlternative
	RemoveXorg
	RegenerateXorg
)

func (k ActionKind) String() string {
	switch k {
	case SelectAlternative:
		return "SelectAlternative"
	case RemoveXorg:
		return "RemoveXorg"
	case RegenerateXorg:
		return "RegenerateXorg"
	default:
		return "NoAction"
	}
}

// Section is an expected xorg.conf Device section.
type Section struct {
	Identifier string
	Driver     string
	BusID      gpu.BusID
}

// Action is a single idempotent step of the plan. Only the fields relevant to
// Kind are set.
type Action struct {
	Kind        ActionKind
	Alternative sysstate.Alternative
	Path        string
	Sections    []Section
}

// Select builds a SelectAlternative action.
func Select(alt sysstate.Alternative) Action {
	return Action{Kind: SelectAlternative, Alternative: alt}
}

// Remove builds a RemoveXorg action.
func Remove(path string) Action {
	return Action{Kind: RemoveXorg, Path: path}
}

// Regenerate builds a RegenerateXorg action.
func Regenerate(path string, sections []Section) Action {
	return Action{Kind: RegenerateXorg, Path: path, Sections: sections}
}

// XorgMode is what the chosen driver plan needs from xorg.conf.
type XorgMode int

const (
	// XorgUnmanaged leaves xorg.conf to someone else, for example a vendor
	// installer or a machine without GPUs.
	XorgUnmanaged XorgMode = iota
	// XorgNone means a single driver configuration that runs without xorg.conf.
	XorgNone
	// XorgDual means a hybrid configuration with one Device section per GPU.
	XorgDual
)

func (m XorgMode) String() string {
	switch m {
	case XorgNone:
		return "none"
	case XorgDual:
		return "dual"
	default:
		return "unmanaged"
	}
}

// XorgRequirement is the xorg.conf shape expected for the driver plan.
type XorgRequirement struct {
	Mode     XorgMode
	Sections []Section
}

// Outcome is the result of a single run.
type Outcome struct {
	HasChanged                   bool
	HasSelectedDriver            bool
	HasRemovedXorg               bool
	HasRegeneratedXorg           bool
	ProprietaryInstallerDetected bool
	Selected                     *sysstate.Alternative
	Xorg                         XorgRequirement
	Actions                      []Action
	// Trace holds the decision log lines in emission order.
	Trace []string
}

// HasActed is false only when no selection, removal or regeneration fired.
func (o Outcome) HasActed() bool {
	return o.HasSelectedDriver || o.HasRemovedXorg || o.HasRegeneratedXorg
}

// Log appends a decision trace line.
func (o *Outcome) Log(line string) {
	o.Trace = append(o.Trace, line)
}

// Add records an action and updates the derived flags.
func (o *Outcome) Add(action Action) {
	switch action.Kind {
	case NoAction:
		return
	case SelectAlternative:
		alt := action.Alternative
		o.Selected = &alt
		o.HasSelectedDriver = true
	case RemoveXorg:
		o.HasRemovedXorg = true
	case RegenerateXorg:
		o.HasRegeneratedXorg = true
	}
	o.Actions = append(o.Actions, action)
}

type sectionView struct {
	Identifier string `json:"identifier"`
	Driver     string `json:"driver"`
	BusID      string `json:"busId"`
}

type actionView struct {
	Kind        string        `json:"kind"`
	Alternative string        `json:"alternative,omitempty"`
	DriverKind  string        `json:"driverKind,omitempty"`
	Path        string        `json:"path,omitempty"`
	Sections    []sectionView `json:"sections,omitempty"`
}

type outcomeView struct {
	HasChanged                   bool         `json:"hasChanged"`
	HasSelectedDriver            bool         `json:"hasSelectedDriver"`
	HasRemovedXorg               bool         `json:"hasRemovedXorg"`
	HasRegeneratedXorg           bool         `json:"hasRegeneratedXorg"`
	HasActed                     bool         `json:"hasActed"`
	ProprietaryInstallerDetected bool         `json:"proprietaryInstallerDetected"`
	Selected                     string       `json:"selected,omitempty"`
	XorgMode                     string       `json:"xorgMode"`
	Actions                      []actionView `json:"actions"`
	Trace                        []string     `json:"trace"`
}

// MarshalJSON renders the outcome for the execution layer.
func (o Outcome) MarshalJSON() ([]byte, error) {
	view := outcomeView{
		HasChanged:                   o.HasChanged,
		HasSelectedDriver:            o.HasSelectedDriver,
		HasRemovedXorg:               o.HasRemovedXorg,
		HasRegeneratedXorg:           o.HasRegeneratedXorg,
		HasActed:                     o.HasActed(),
		ProprietaryInstallerDetected: o.ProprietaryInstallerDetected,
		XorgMode:                     o.Xorg.Mode.String(),
		Actions:                      make([]actionView, 0, len(o.Actions)),
		Trace:                        o.Trace,
	}
	if o.Selected != nil {
		view.Selected = o.Selected.Path
	}
	for _, action := range o.Actions {
		av := actionView{Kind: action.Kind.String(), Path: action.Path}
		if action.Kind == SelectAlternative {
			av.Alternative = action.Alternative.Path
			av.DriverKind = action.Alternative.Kind.String()
		}
		for _, section := range action.Sections {
			av.Sections = append(av.Sections, sectionView{
				Identifier: section.Identifier,
				Driver:     section.Driver,
				BusID:      section.BusID.XorgMulti(),
			})
		}
		view.Actions = append(view.Actions, av)
	}
	return json.Marshal(view)
}
