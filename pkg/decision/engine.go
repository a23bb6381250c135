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

package decision

import (
	"fmt"

	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/gpu"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/plan"
	"github.com/aleksandr-podmoskovniy/gpu-manager/pkg/sysstate"
)

// Trace lines shared with the rest of the pipeline.
const (
	MsgSingleCard       = "Single card detected"
	MsgChanged          = "System configuration has changed"
	MsgNoChange         = "No change - nothing to do"
	MsgNothingToDo      = "Nothing to do"
	MsgHybridNothing    = "Intel hybrid laptop - nothing to do"
	MsgAlreadyEnabled   = "Driver is already loaded and enabled"
	MsgInstallerFound   = "Proprietary driver installer detected"
	msgSelectingPattern = "Selecting %s"
)

// Device section identifiers and drivers of generated dual GPU configs.
const (
	identifierIntel  = "intel"
	identifierNvidia = "nvidia"
	identifierAMD    = "amd"
	driverModeset    = "modesetting"
	driverIntel      = "intel"
	driverNvidia     = "nvidia"
	driverFglrx      = "fglrx"
)

var traceKinds = []sysstate.DriverKind{
	sysstate.DriverMesa,
	sysstate.DriverNvidia,
	sysstate.DriverNvidiaPrime,
	sysstate.DriverFglrx,
	sysstate.DriverPxpress,
}

var unloadFamilies = []string{sysstate.ModuleNvidia, sysstate.ModuleFglrx}

// Decide selects the driver alternative and the xorg.conf shape for facts.
// It is a pure function: it only reads facts and returns the outcome with the
// driver selection fields and the xorg requirement filled in.
func Decide(facts Facts) plan.Outcome {
	d := &decider{facts: facts, out: plan.Outcome{HasChanged: facts.HasChanged}}
	d.traceFacts()
	d.detectInstaller()
	d.choose()
	if d.out.ProprietaryInstallerDetected {
		d.out.Xorg = plan.XorgRequirement{Mode: plan.XorgUnmanaged}
	}
	return d.out
}

// Conclude appends the closing trace line once every stage has run.
func Conclude(out *plan.Outcome) {
	if !out.HasChanged && !out.HasActed() {
		out.Log(MsgNoChange)
	}
}

type decider struct {
	facts Facts
	out   plan.Outcome
}

func (d *decider) log(format string, args ...any) {
	d.out.Log(fmt.Sprintf(format, args...))
}

func (d *decider) traceFacts() {
	inv := d.facts.Inventory
	d.log("Is laptop? %s", yesNo(d.facts.IsLaptop))
	d.log("Has Intel? %s", yesNo(inv.HasIntel()))
	d.log("Has AMD? %s", yesNo(inv.HasAMD()))
	d.log("Has NVIDIA? %s", yesNo(inv.HasNvidia()))
	for _, module := range sysstate.TrackedModules {
		d.log("Is %s loaded? %s", module, yesNo(d.facts.loaded(module)))
	}
	for _, module := range unloadFamilies {
		d.log("Was %s unloaded? %s", module, yesNo(d.facts.unloaded(module)))
	}
	alts := d.facts.System.Alternatives
	for _, kind := range traceKinds {
		d.log("Is %s enabled? %s", kind, yesNo(alts.IsEnabled(kind)))
	}
	if d.facts.IsLaptop && d.facts.System.Hybrid != nil {
		d.log("Is the discrete GPU powered? %s", yesNo(d.facts.System.Hybrid.Powered()))
	}
	if d.facts.HasChanged {
		d.out.Log(MsgChanged)
	}
}

// detectInstaller flags a proprietary module that is loaded while the
// catalog has no alternative for it: the vendor installed outside the
// alternatives system.
func (d *decider) detectInstaller() {
	alts := d.facts.System.Alternatives
	nvidia := d.facts.loaded(sysstate.ModuleNvidia) && !alts.Has(sysstate.DriverNvidia, sysstate.DriverNvidiaPrime)
	fglrx := d.facts.loaded(sysstate.ModuleFglrx) && !alts.Has(sysstate.DriverFglrx, sysstate.DriverPxpress)
	if nvidia || fglrx {
		d.out.ProprietaryInstallerDetected = true
		d.out.Log(MsgInstallerFound)
	}
}

func (d *decider) choose() {
	inv := d.facts.Inventory
	if inv.Len() == 0 {
		d.out.Xorg = plan.XorgRequirement{Mode: plan.XorgUnmanaged}
		d.settle()
		return
	}

	d.out.Xorg = plan.XorgRequirement{Mode: plan.XorgNone}
	if inv.HasSingleCard() {
		d.out.Log(MsgSingleCard)
	}

	hybrid := d.facts.IsLaptop && !inv.HasSingleCard() && inv.HasIntel()
	switch {
	case hybrid && inv.HasAMD():
		d.powerXpress()
	case hybrid && inv.HasNvidia():
		d.prime()
	default:
		d.discrete()
	}
}

// discrete handles single cards and every multi GPU setup that is not a
// hybrid laptop. Same vendor cards follow the boot VGA card. With mixed
// vendors a loaded proprietary module wins, the boot VGA vendor first.
func (d *decider) discrete() {
	inv := d.facts.Inventory
	boot, _ := inv.BootVGA()
	if !mixedVendors(inv) {
		d.forVendor(boot.Vendor())
		return
	}
	for _, vendor := range []gpu.Vendor{boot.Vendor(), gpu.VendorNvidia, gpu.VendorAMD} {
		module, _, ok := proprietaryFor(vendor)
		if ok && inv.HasVendor(vendor) && d.facts.loaded(module) {
			d.forVendor(vendor)
			return
		}
	}
	d.forVendor(boot.Vendor())
}

func (d *decider) forVendor(vendor gpu.Vendor) {
	if module, kind, ok := proprietaryFor(vendor); ok {
		d.proprietary(module, kind)
		return
	}
	d.openSource()
}

func proprietaryFor(vendor gpu.Vendor) (string, sysstate.DriverKind, bool) {
	switch vendor {
	case gpu.VendorNvidia:
		return sysstate.ModuleNvidia, sysstate.DriverNvidia, true
	case gpu.VendorAMD:
		return sysstate.ModuleFglrx, sysstate.DriverFglrx, true
	default:
		return "", sysstate.DriverUnknown, false
	}
}

func mixedVendors(inv *gpu.Inventory) bool {
	records := inv.Records()
	for _, record := range records[1:] {
		if record.Vendor() != records[0].Vendor() {
			return true
		}
	}
	return false
}

func (d *decider) proprietary(module string, target sysstate.DriverKind) {
	active := d.facts.active()
	loaded := d.facts.loaded(module)
	switch {
	case loaded && active == target:
		d.out.Log(MsgAlreadyEnabled)
	case loaded:
		if !d.selectKind(target) {
			d.settle()
		}
	case active.IsProprietary():
		d.selectMesa()
	default:
		d.out.Log(MsgNothingToDo)
	}
}

func (d *decider) openSource() {
	if d.facts.active().IsProprietary() {
		d.selectMesa()
		return
	}
	d.out.Log(MsgNothingToDo)
}

// prime handles Intel+NVIDIA laptops. Only drift is normalized: a steady
// PRIME setup is left alone and no runtime GPU switching is attempted.
func (d *decider) prime() {
	hybrid := d.facts.System.Hybrid
	loaded := d.facts.loaded(sysstate.ModuleNvidia)
	primeOn := hybrid.Prime()
	alts := d.facts.System.Alternatives

	switch d.facts.active() {
	case sysstate.DriverNvidiaPrime:
		switch {
		case loaded && primeOn:
			d.out.Log(MsgAlreadyEnabled)
			d.requirePrimeXorg()
		case loaded:
			if !d.selectKind(sysstate.DriverNvidia) {
				d.settle()
			}
		default:
			d.selectMesa()
		}
	case sysstate.DriverNvidia:
		switch {
		case loaded && primeOn && alts.Has(sysstate.DriverNvidiaPrime):
			d.selectKind(sysstate.DriverNvidiaPrime)
			d.requirePrimeXorg()
		case loaded:
			d.out.Log(MsgAlreadyEnabled)
		default:
			d.selectMesa()
		}
	default:
		switch {
		case loaded && primeOn && d.selectKind(sysstate.DriverNvidiaPrime):
			d.requirePrimeXorg()
		case loaded && d.selectKind(sysstate.DriverNvidia):
		case loaded:
			d.settle()
		case d.facts.active().IsProprietary():
			d.selectMesa()
		default:
			d.out.Log(MsgHybridNothing)
		}
	}
}

// powerXpress handles Intel+AMD laptops.
func (d *decider) powerXpress() {
	hybrid := d.facts.System.Hybrid
	loaded := d.facts.loaded(sysstate.ModuleFglrx)
	active := d.facts.active()

	switch active {
	case sysstate.DriverFglrx, sysstate.DriverPxpress:
		switch {
		case loaded:
			d.out.Log(MsgAlreadyEnabled)
			d.requirePxpressXorg()
		default:
			d.selectMesa()
		}
	default:
		switch {
		case loaded && hybrid.PxDisabled():
			// We should select pxpress here but we won't for now.
			d.settle()
		case loaded && (d.selectKind(sysstate.DriverFglrx) || d.selectKind(sysstate.DriverPxpress)):
			d.requirePxpressXorg()
		case loaded:
			d.settle()
		case active.IsProprietary():
			d.selectMesa()
		default:
			d.out.Log(MsgHybridNothing)
		}
	}
}

func (d *decider) requirePrimeXorg() {
	intel, _ := d.facts.Inventory.FirstOf(gpu.VendorIntel)
	nvidia, _ := d.facts.Inventory.FirstOf(gpu.VendorNvidia)
	d.out.Xorg = plan.XorgRequirement{
		Mode: plan.XorgDual,
		Sections: []plan.Section{
			{Identifier: identifierIntel, Driver: driverModeset, BusID: intel.BusID},
			{Identifier: identifierNvidia, Driver: driverNvidia, BusID: nvidia.BusID},
		},
	}
}

func (d *decider) requirePxpressXorg() {
	intel, _ := d.facts.Inventory.FirstOf(gpu.VendorIntel)
	amd, _ := d.facts.Inventory.FirstOf(gpu.VendorAMD)
	d.out.Xorg = plan.XorgRequirement{
		Mode: plan.XorgDual,
		Sections: []plan.Section{
			{Identifier: identifierIntel, Driver: driverIntel, BusID: intel.BusID},
			{Identifier: identifierAMD, Driver: driverFglrx, BusID: amd.BusID},
		},
	}
}

// selectKind emits a selection of the catalog entry of kind. It never
// selects the already active alternative or one missing from the catalog.
func (d *decider) selectKind(kind sysstate.DriverKind) bool {
	if d.facts.active() == kind {
		return false
	}
	alt, ok := d.facts.System.Alternatives.Find(kind)
	if !ok {
		return false
	}
	d.out.Add(plan.Select(alt))
	d.log(msgSelectingPattern, alt.Path)
	return true
}

// settle is used when no target alternative can be selected. An enabled
// proprietary alternative without its module still falls back to Mesa.
func (d *decider) settle() {
	active := d.facts.active()
	if active.IsProprietary() && !d.facts.loaded(active.Module()) {
		d.selectMesa()
		return
	}
	d.out.Log(MsgNothingToDo)
}

func (d *decider) selectMesa() {
	if !d.selectKind(sysstate.DriverMesa) {
		d.out.Log(MsgNothingToDo)
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
