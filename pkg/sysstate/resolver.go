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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	utilexec "k8s.io/utils/exec"
)

const (
	DefaultModulesPath        = "/proc/modules"
	DefaultPrimeSettings      = "/etc/prime-discrete"
	DefaultBbswitchPath       = "/proc/acpi/bbswitch"
	DefaultAMDPCSDBPath       = "/etc/ati/amdpcsdb"
	DefaultAlternativesName   = "x86_64-linux-gnu_gl_conf"
	UpdateAlternativesCommand = "update-alternatives"
	dmesgCmd                  = "dmesg"
)

// State is the merged system fact base besides the GPU inventory.
type State struct {
	Modules      ModuleState
	Alternatives AlternativeState
	// Hybrid is nil on desktops.
	Hybrid *HybridState
	// Warnings lists optional sources that existed but could not be read.
	Warnings []string
}

// AlternativesQuerier returns the alternatives catalog and the active entry.
type AlternativesQuerier interface {
	Query(ctx context.Context) (AlternativeState, error)
}

// CommandQuerier runs `update-alternatives --query <name>`.
type CommandQuerier struct {
	Exec utilexec.Interface
	Name string
}

// NewCommandQuerier creates a querier for the GL alternative name.
func NewCommandQuerier(exec utilexec.Interface, name string) *CommandQuerier {
	if name == "" {
		name = DefaultAlternativesName
	}
	return &CommandQuerier{Exec: exec, Name: name}
}

func (q *CommandQuerier) Query(ctx context.Context) (AlternativeState, error) {
	out, err := q.Exec.CommandContext(ctx, UpdateAlternativesCommand, "--query", q.Name).Output()
	if err != nil {
		return AlternativeState{}, fmt.Errorf("query alternatives %s: %w", q.Name, err)
	}
	return ParseQuery(string(out)), nil
}

// FileQuerier reads saved `update-alternatives --query` output.
type FileQuerier struct {
	Path string
}

func (q *FileQuerier) Query(_ context.Context) (AlternativeState, error) {
	text, ok, err := readOptional(q.Path)
	if err != nil {
		return AlternativeState{}, err
	}
	if !ok {
		return AlternativeState{}, nil
	}
	return ParseQuery(text), nil
}

// Sources lists the paths of every optional system state input.
type Sources struct {
	ModulesPath string
	// KernelLogPath is read instead of running dmesg when set.
	KernelLogPath     string
	PrimeSettingsPath string
	BbswitchPath      string
	AMDPCSDBPath      string
}

// DefaultSources returns the stock system paths.
func DefaultSources() Sources {
	return Sources{
		ModulesPath:       DefaultModulesPath,
		PrimeSettingsPath: DefaultPrimeSettings,
		BbswitchPath:      DefaultBbswitchPath,
		AMDPCSDBPath:      DefaultAMDPCSDBPath,
	}
}

// Resolver merges module, alternatives and hybrid state.
type Resolver struct {
	sources      Sources
	exec         utilexec.Interface
	alternatives AlternativesQuerier
}

// NewResolver creates a resolver. exec is used for dmesg when no kernel log
// path is configured and may be nil.
func NewResolver(sources Sources, alternatives AlternativesQuerier, exec utilexec.Interface) *Resolver {
	return &Resolver{sources: sources, exec: exec, alternatives: alternatives}
}

// Resolve reads every source. Absent or unreadable sources degrade to empty
// defaults and are reported in State.Warnings; hybrid state is only read on
// laptops.
func (r *Resolver) Resolve(ctx context.Context, laptop bool) State {
	st := State{}

	modulesText, _, err := readOptional(r.sources.ModulesPath)
	if err != nil {
		st.Warnings = append(st.Warnings, err.Error())
	}
	st.Modules = NewModuleState(ParseModules(modulesText), ScanUnloaded(r.kernelLog(ctx, &st)))

	if r.alternatives != nil {
		alternatives, err := r.alternatives.Query(ctx)
		if err != nil {
			st.Warnings = append(st.Warnings, err.Error())
		}
		st.Alternatives = alternatives
	}

	if laptop {
		st.Hybrid = r.hybrid(&st)
	}

	return st
}

func (r *Resolver) kernelLog(ctx context.Context, st *State) string {
	if r.sources.KernelLogPath != "" {
		text, _, err := readOptional(r.sources.KernelLogPath)
		if err != nil {
			st.Warnings = append(st.Warnings, err.Error())
		}
		return text
	}
	if r.exec == nil {
		return ""
	}
	out, err := r.exec.CommandContext(ctx, dmesgCmd).Output()
	if err != nil {
		st.Warnings = append(st.Warnings, fmt.Sprintf("run %s: %v", dmesgCmd, err))
		return ""
	}
	return string(out)
}

func (r *Resolver) hybrid(st *State) *HybridState {
	h := &HybridState{}
	read := func(path string, parse func(string) *bool) *bool {
		text, ok, err := readOptional(path)
		if err != nil {
			st.Warnings = append(st.Warnings, err.Error())
		}
		if !ok {
			return nil
		}
		return parse(text)
	}

	h.PrimeEnabled = read(r.sources.PrimeSettingsPath, ParsePrimeSetting)
	h.DiscretePowered = read(r.sources.BbswitchPath, ParseBbswitch)
	h.DiscretePxDisabled = read(r.sources.AMDPCSDBPath, ParseAMDPCSDB)
	return h
}

// readOptional returns ok=false for an empty path or a missing file. Other
// read failures, such as permission errors, also return ok=false together
// with the error so the caller can record it.
func readOptional(path string) (string, bool, error) {
	if path == "" {
		return "", false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: %w", path, err)
	}
	return strings.TrimRight(string(data), "\x00"), true, nil
}
