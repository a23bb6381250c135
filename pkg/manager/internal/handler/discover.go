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

package handler

import (
	"context"
	"fmt"

	"k8s.io/utils/ptr"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/service"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/manager/internal/state"
)

const discoverHandlerName = "Discover"

// DiscoverHandler enumerates GPUs and detects the chassis.
type DiscoverHandler struct {
	inventory service.InventorySource
	host      service.HostInfoProvider
	namer     service.DeviceNamer
	// laptop overrides chassis detection when set.
	laptop *bool
}

func NewDiscoverHandler(inventory service.InventorySource, host service.HostInfoProvider, namer service.DeviceNamer, laptop *bool) *DiscoverHandler {
	return &DiscoverHandler{inventory: inventory, host: host, namer: namer, laptop: laptop}
}

func (h *DiscoverHandler) Name() string {
	return discoverHandlerName
}

// Handle fails the run with ErrFatalInput when the GPU list is unreadable.
func (h *DiscoverHandler) Handle(ctx context.Context, st state.State) error {
	invLog, invCtx := logger.GetDataSourceContext(ctx, "inventory")
	inv, err := h.inventory.Load(invCtx)
	if err != nil {
		return FatalInput(fmt.Errorf("load gpu inventory: %w", err))
	}
	for _, line := range inv.Skipped() {
		invLog.Warn("Skipping malformed GPU record", "line", line)
	}
	for _, record := range inv.Records() {
		args := []any{"gpu", record.String(), "bootVGA", record.BootVGA}
		if h.namer != nil {
			args = append(args,
				"vendorName", h.namer.VendorName(record.VendorID),
				"deviceName", h.namer.DeviceName(record.VendorID, record.DeviceID))
		}
		invLog.Debug("GPU found", args...)
	}
	st.SetInventory(inv)

	hostLog, hostCtx := logger.GetDataSourceContext(ctx, "host-info")
	laptop := ptr.Deref(h.laptop, false)
	if h.host != nil {
		info := h.host.Info(hostCtx)
		if h.laptop == nil {
			laptop = info.IsLaptop()
		}
		hostLog.Debug("Host info collected",
			"kernel", info.KernelRelease,
			"vendor", info.SysVendor,
			"chassisType", ptr.Deref(info.ChassisType, 0))
	}
	st.SetLaptop(laptop)
	return nil
}
