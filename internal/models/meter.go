// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package models

// Meter is authoritative on REMOTE and replicated to LOCAL. The natural
// upsert key on LOCAL is (MeterID, MeterElementID).
type Meter struct {
	MeterID        int64  `db:"meter_id"`
	TenantID       int64  `db:"tenant_id"`
	Name           string `db:"name"`
	DeviceID       int64  `db:"device_id"`
	IP             string `db:"ip"`
	Port           string `db:"port"`
	Active         bool   `db:"active"`
	Element        string `db:"element"`
	MeterElementID int64  `db:"meter_element_id"`
}

// DiffFields returns the names of replicated fields that differ between m
// (REMOTE) and local: device_id, ip, port, active, element.
func (m Meter) DiffFields(local Meter) []string {
	var changed []string
	if m.DeviceID != local.DeviceID {
		changed = append(changed, "device_id")
	}
	if m.IP != local.IP {
		changed = append(changed, "ip")
	}
	if m.Port != local.Port {
		changed = append(changed, "port")
	}
	if m.Active != local.Active {
		changed = append(changed, "active")
	}
	if m.Element != local.Element {
		changed = append(changed, "element")
	}
	return changed
}
