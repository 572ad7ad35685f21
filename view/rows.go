// Package view builds what the register editor displays: the flattened
// register table of a device and the state of the bit viewer.
package view

import (
	"fmt"
	"slices"

	"bitsmith/device"
	"bitsmith/diag"
	"bitsmith/memmap"
	"bitsmith/wide"
)

// Row is one register instance, formatted for display.
type Row struct {
	Peripheral string
	Register   string // template register name
	Name       string // instance name
	ID         string
	Index      int // -1 for plain registers
	Width      int
	Access     device.Access

	Offset  string
	Address string
	Reset   string // hex, padded to the register width; empty if the width is invalid

	Description string
}

// Rows flattens the registers of every peripheral of dev, expanding arrays.
// Registers which can't be expanded are reported and left out.
func Rows(dev *device.Device) ([]Row, diag.List) {
	periphs, issues := dev.Expand()

	var rows []Row
	for pi, pe := range periphs {
		for _, inst := range pe.Instances {
			reg := inst.Template
			row := Row{
				Peripheral:  pe.Peripheral.Name,
				Register:    reg.Name,
				Name:        inst.Name,
				ID:          inst.ID,
				Index:       inst.Index,
				Width:       reg.Width,
				Access:      reg.Access,
				Offset:      wide.Literal(&inst.AddressOffset),
				Address:     memmap.FormatAddress(&inst.Address),
				Description: reg.Description,
			}
			if wide.IsAcceptedWidth(reg.Width) {
				row.Reset = "0x" + wide.FormatHex(&reg.ResetValue, reg.Width)
			} else if inst.Index <= 0 {
				ri := slices.Index(pe.Peripheral.Registers, reg)
				issues = append(issues, diag.Rangef("register %s has unsupported width %d", reg.Name, reg.Width).
					At(fmt.Sprintf("peripherals[%d].registers[%d].width", pi, ri)))
			}
			rows = append(rows, row)
		}
	}
	return rows, issues
}
