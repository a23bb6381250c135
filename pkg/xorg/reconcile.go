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

package xorg

import (
	"fmt"
	"strings"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
)

// Result is the xorg part of the plan.
type Result struct {
	Actions []plan.Action
	Trace   []string
}

func (r *Result) log(format string, args ...any) {
	r.Trace = append(r.Trace, fmt.Sprintf(format, args...))
}

// Reconcile compares the existing config, nil when the file is absent, with
// the requirement of the driver plan. A stale file is removed and generated
// again, never patched.
func Reconcile(req plan.XorgRequirement, existing *Config, path string) Result {
	var res Result
	switch req.Mode {
	case plan.XorgNone:
		if existing != nil {
			res.log("Removing xorg.conf. Path: %s", path)
			res.Actions = append(res.Actions, plan.Remove(path))
		}
	case plan.XorgDual:
		switch {
		case existing == nil:
			res.log("Regenerating xorg.conf. Path: %s", path)
			res.Actions = append(res.Actions, plan.Regenerate(path, req.Sections))
		case Matches(existing, req.Sections):
			res.log("No need to modify xorg.conf. Path %s", path)
		default:
			res.log("Removing xorg.conf. Path: %s", path)
			res.log("Regenerating xorg.conf. Path: %s", path)
			res.Actions = append(res.Actions, plan.Remove(path), plan.Regenerate(path, req.Sections))
		}
	}
	return res
}

// Matches reports whether the Device sections of cfg are the expected
// sections: same count, same driver and BusID per section, any order.
// Both BusID notations compare equal.
func Matches(cfg *Config, expected []plan.Section) bool {
	if cfg == nil || len(cfg.Devices) != len(expected) {
		return false
	}
	counts := make(map[string]int, len(expected))
	for _, section := range expected {
		counts[sectionKey(section.Driver, section.BusID.String())]++
	}
	for _, device := range cfg.Devices {
		busID, err := ParseBusID(device.BusID)
		if err != nil {
			return false
		}
		key := sectionKey(device.Driver, busID.String())
		if counts[key] == 0 {
			return false
		}
		counts[key]--
	}
	return true
}

func sectionKey(driver, busID string) string {
	return strings.ToLower(strings.TrimSpace(driver)) + "|" + busID
}
