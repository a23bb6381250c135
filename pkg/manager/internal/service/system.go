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

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/xorg"
)

// SystemResolver reads kernel modules, alternatives and hybrid state.
type SystemResolver interface {
	Resolve(ctx context.Context, laptop bool) sysstate.State
}

// XorgStore reads and mutates xorg.conf.
type XorgStore interface {
	Load() (*xorg.Config, error)
	Remove() error
	Write(sections []plan.Section) error
}

var (
	_ SystemResolver = (*sysstate.Resolver)(nil)
	_ XorgStore      = (*xorg.FileStore)(nil)
)
