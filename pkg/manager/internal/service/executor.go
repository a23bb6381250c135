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

package service

import (
	"context"
	"fmt"
	"strings"

	utilexec "k8s.io/utils/exec"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

const ldconfigCommand = "ldconfig"

// Executor applies a single planned action.
type Executor interface {
	Apply(ctx context.Context, action plan.Action) error
}

// SystemExecutor switches alternatives with update-alternatives and
// rewrites xorg.conf on disk.
type SystemExecutor struct {
	exec             utilexec.Interface
	alternativesName string
	xorg             XorgStore
}

func NewSystemExecutor(exec utilexec.Interface, alternativesName string, xorg XorgStore) *SystemExecutor {
	if alternativesName == "" {
		alternativesName = sysstate.DefaultAlternativesName
	}
	return &SystemExecutor{exec: exec, alternativesName: alternativesName, xorg: xorg}
}

func (e *SystemExecutor) Apply(ctx context.Context, action plan.Action) error {
	switch action.Kind {
	case plan.SelectAlternative:
		return e.selectAlternative(ctx, action.Alternative)
	case plan.RemoveXorg:
		return e.xorg.Remove()
	case plan.RegenerateXorg:
		return e.xorg.Write(action.Sections)
	default:
		return nil
	}
}

func (e *SystemExecutor) selectAlternative(ctx context.Context, alt sysstate.Alternative) error {
	out, err := e.exec.CommandContext(ctx, sysstate.UpdateAlternativesCommand, "--set", e.alternativesName, alt.Path).CombinedOutput()
	if err != nil {
		return fmt.Errorf("select %s: %w: %s", alt.Path, err, strings.TrimSpace(string(out)))
	}
	out, err = e.exec.CommandContext(ctx, ldconfigCommand).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", ldconfigCommand, err, strings.TrimSpace(string(out)))
	}
	return nil
}
