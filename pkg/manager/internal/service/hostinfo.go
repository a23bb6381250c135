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

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sys/hostinfo"
)

// HostInfoProvider reports the chassis and kernel of the machine.
type HostInfoProvider interface {
	Info(ctx context.Context) hostinfo.Info
}

// HostInfoCollector gathers host information from sysfs.
type HostInfoCollector struct {
	SysRoot string
}

func NewHostInfoCollector(sysRoot string) *HostInfoCollector {
	return &HostInfoCollector{SysRoot: sysRoot}
}

func (h *HostInfoCollector) Info(_ context.Context) hostinfo.Info {
	return hostinfo.Discover(h.SysRoot)
}
