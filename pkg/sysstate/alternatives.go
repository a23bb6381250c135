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
	"path/filepath"
	"strings"
)

// DriverKind classifies a driver alternative.
type DriverKind int

const (
	DriverUnknown DriverKind = iota
	DriverMesa
	DriverNvidia
	DriverNvidiaPrime
	DriverFglrx
	DriverPxpress
)

// String returns the human readable kind name.
func (k DriverKind) String() string {
	switch k {
	case DriverMesa:
		return "mesa"
	case DriverNvidia:
		return "nvidia"
	case DriverNvidiaPrime:
		return "prime"
	case DriverFglrx:
		return "fglrx"
	case DriverPxpress:
		return "pxpress"
	default:
		return "unknown"
	}
}

// IsProprietary reports whether the kind needs a proprietary kernel module.
func (k DriverKind) IsProprietary() bool {
	switch k {
	case DriverNvidia, DriverNvidiaPrime, DriverFglrx, DriverPxpress:
		return true
	default:
		return false
	}
}

// Module returns the kernel module the kind depends on, if any.
func (k DriverKind) Module() string {
	switch k {
	case DriverNvidia, DriverNvidiaPrime:
		return ModuleNvidia
	case DriverFglrx, DriverPxpress:
		return ModuleFglrx
	default:
		return ""
	}
}

// ClassifyAlternative maps an alternative target path to its kind.
func ClassifyAlternative(path string) DriverKind {
	value := strings.ToLower(path)
	switch {
	case value == "":
		return DriverUnknown
	case strings.Contains(value, "mesa"):
		return DriverMesa
	case strings.Contains(value, "pxpress"):
		return DriverPxpress
	case strings.Contains(value, "fglrx"):
		return DriverFglrx
	case strings.Contains(value, "nvidia") && strings.Contains(value, "prime"):
		return DriverNvidiaPrime
	case strings.Contains(value, "nvidia"):
		return DriverNvidia
	default:
		return DriverUnknown
	}
}

// Alternative is a single selectable driver implementation.
type Alternative struct {
	Path string
	Kind DriverKind
}

// Name returns a short name for the alternative, for example "nvidia-331".
func (a Alternative) Name() string {
	if a.Path == "" {
		return ""
	}
	dir := filepath.Dir(a.Path)
	if a.Kind == DriverMesa {
		return "mesa"
	}
	return filepath.Base(dir)
}

// AlternativeState is the alternatives catalog with its active entry.
type AlternativeState struct {
	Catalog []Alternative
	Active  *Alternative
}

// NewAlternativeState classifies the catalog paths and the active path.
func NewAlternativeState(paths []string, active string) AlternativeState {
	st := AlternativeState{}
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		st.Catalog = append(st.Catalog, Alternative{Path: path, Kind: ClassifyAlternative(path)})
	}
	active = strings.TrimSpace(active)
	if active != "" {
		st.Active = &Alternative{Path: active, Kind: ClassifyAlternative(active)}
	}
	return st
}

// ActiveKind returns the kind of the active alternative.
func (s AlternativeState) ActiveKind() DriverKind {
	if s.Active == nil {
		return DriverUnknown
	}
	return s.Active.Kind
}

// IsEnabled reports whether the active alternative has the given kind.
func (s AlternativeState) IsEnabled(kind DriverKind) bool {
	return s.ActiveKind() == kind
}

// Find returns the first catalog entry of a kind.
func (s AlternativeState) Find(kind DriverKind) (Alternative, bool) {
	for _, alt := range s.Catalog {
		if alt.Kind == kind {
			return alt, true
		}
	}
	return Alternative{}, false
}

// Has reports whether the catalog contains any of the kinds.
func (s AlternativeState) Has(kinds ...DriverKind) bool {
	for _, kind := range kinds {
		if _, ok := s.Find(kind); ok {
			return true
		}
	}
	return false
}

// ParseQuery reads `update-alternatives --query` output: the "Value:" line is
// the active target and every "Alternative:" line is a catalog entry.
func ParseQuery(text string) AlternativeState {
	var (
		paths  []string
		active string
	)
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Value":
			if value != "none" {
				active = value
			}
		case "Alternative":
			paths = append(paths, value)
		}
	}
	return NewAlternativeState(paths, active)
}
