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
	"strings"

	"k8s.io/utils/ptr"
)

// AMDPCSDBDiscreteDownKey marks the discrete GPU as administratively disabled
// in the AMD settings database.
const AMDPCSDBDiscreteDownKey = "PX_GPUDOWN"

// HybridState is the laptop hybrid graphics state. A nil field means the
// source was absent or unreadable.
type HybridState struct {
	PrimeEnabled       *bool
	DiscretePowered    *bool
	DiscretePxDisabled *bool
}

// Prime reports whether PRIME is enabled, false when unknown.
func (h *HybridState) Prime() bool {
	if h == nil {
		return false
	}
	return ptr.Deref(h.PrimeEnabled, false)
}

// Powered reports whether the discrete GPU is powered. An unknown power state
// counts as powered: without bbswitch the GPU is never switched off.
func (h *HybridState) Powered() bool {
	if h == nil {
		return true
	}
	return ptr.Deref(h.DiscretePowered, true)
}

// PxDisabled reports whether PowerXpress disabled the discrete GPU.
func (h *HybridState) PxDisabled() bool {
	if h == nil {
		return false
	}
	return ptr.Deref(h.DiscretePxDisabled, false)
}

// ParsePrimeSetting parses the prime-discrete file ("on" or "off").
func ParsePrimeSetting(text string) *bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "on":
		return ptr.To(true)
	case "off":
		return ptr.To(false)
	default:
		return nil
	}
}

// ParseBbswitch parses the bbswitch "<busid> ON|OFF" line.
func ParseBbswitch(text string) *bool {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	switch strings.ToUpper(fields[1]) {
	case "ON":
		return ptr.To(true)
	case "OFF":
		return ptr.To(false)
	default:
		return nil
	}
}

// ParseAMDPCSDB looks for the discrete-down key in amdpcsdb key=value text.
func ParseAMDPCSDB(text string) *bool {
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		key, _, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if ok && strings.TrimSpace(key) == AMDPCSDBDiscreteDownKey {
			return ptr.To(true)
		}
	}
	return ptr.To(false)
}
