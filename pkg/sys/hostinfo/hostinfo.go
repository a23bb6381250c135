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

package hostinfo

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"k8s.io/utils/ptr"
)

const (
	defaultSysRoot         = "/sys"
	defaultDMIRelativePath = "devices/virtual/dmi/id"
)

// SMBIOS chassis types of portable machines.
var laptopChassisTypes = map[int]struct{}{
	8:  {}, // portable
	9:  {}, // laptop
	10: {}, // notebook
	11: {}, // hand held
	14: {}, // sub notebook
	31: {}, // convertible
	32: {}, // detachable
}

// Info is the host information the manager needs.
type Info struct {
	KernelRelease string
	SysVendor     string
	ProductName   string
	// ChassisType is nil when DMI is unavailable.
	ChassisType *int
}

// IsLaptop reports whether the chassis is portable. Unknown chassis types
// count as desktops.
func (i Info) IsLaptop() bool {
	if i.ChassisType == nil {
		return false
	}
	_, ok := laptopChassisTypes[*i.ChassisType]
	return ok
}

// Discover reads DMI data under sysRoot and the running kernel release.
func Discover(sysRoot string) Info {
	root := sysRoot
	if root == "" {
		root = defaultSysRoot
	}
	dmiDir := filepath.Join(root, defaultDMIRelativePath)

	info := Info{KernelRelease: kernelRelease()}
	info.SysVendor, _ = readTrim(filepath.Join(dmiDir, "sys_vendor"))
	info.ProductName, _ = readTrim(filepath.Join(dmiDir, "product_name"))
	info.ChassisType = parseChassisType(dmiDir)
	return info
}

func parseChassisType(dmiDir string) *int {
	raw, err := readTrim(filepath.Join(dmiDir, "chassis_type"))
	if err != nil || raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return ptr.To(value)
}

func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return ""
	}
	return unix.ByteSliceToString(uts.Release[:])
}

func readTrim(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
