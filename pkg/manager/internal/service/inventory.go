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
	"os"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/logger"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sys/pci"
)

// InventorySource enumerates the GPUs of this boot.
type InventorySource interface {
	Load(ctx context.Context) (*gpu.Inventory, error)
}

// DeviceNamer resolves human readable PCI names.
type DeviceNamer interface {
	VendorName(vendorID string) string
	DeviceName(vendorID, deviceID string) string
}

// FileInventory reads a GPU list in the vendor:device;busid;bootvga notation.
type FileInventory struct {
	Path string
}

func NewFileInventory(path string) *FileInventory {
	return &FileInventory{Path: path}
}

func (s *FileInventory) Load(_ context.Context) (*gpu.Inventory, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open gpu list: %w", err)
	}
	defer f.Close()
	return gpu.Parse(f)
}

// SysfsInventory enumerates display controllers from sysfs.
type SysfsInventory struct {
	reader pci.Reader
}

func NewSysfsInventory(reader pci.Reader) *SysfsInventory {
	return &SysfsInventory{reader: reader}
}

func (s *SysfsInventory) Load(ctx context.Context) (*gpu.Inventory, error) {
	devices, err := s.reader.List(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	var records []gpu.Record
	for _, dev := range pci.Displays(devices) {
		busID, err := gpu.ParseBusID(dev.Address)
		if err != nil {
			log.Warn("Skipping display device with unparsable address", "address", dev.Address, logger.SlogErr(err))
			continue
		}
		log.Debug("Display device found",
			"address", dev.Address,
			"vendorID", dev.VendorID,
			"deviceID", dev.DeviceID,
			"driver", dev.DriverName,
			"bootVGA", dev.BootVGA)
		records = append(records, gpu.Record{
			VendorID: dev.VendorID,
			DeviceID: dev.DeviceID,
			BusID:    busID,
			BootVGA:  dev.BootVGA,
		})
	}
	return gpu.NewInventory(records...), nil
}
