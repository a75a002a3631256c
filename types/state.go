package types

import "sort"

// State is an immutable snapshot mapping device names to devices. The public
// API exposes no in-place mutators; every modification returns a fresh
// State, so snapshots can flow through pipelines and sit in history buffers
// without defensive copying.
//
// Device uniqueness within a State is structural: the backing map is keyed
// by device name.
type State struct {
	devices map[string]Device
}

// NewState creates a state holding the given devices. A later device with
// the same name as an earlier one replaces it.
func NewState(devices ...Device) State {
	m := make(map[string]Device, len(devices))
	for _, d := range devices {
		m[d.Name()] = d
	}
	return State{devices: m}
}

// Device returns the named device.
func (s State) Device(name string) (Device, bool) {
	d, ok := s.devices[name]
	return d, ok
}

// Has reports whether a device with the given name exists.
func (s State) Has(name string) bool {
	_, ok := s.devices[name]
	return ok
}

// Names returns all device names in sorted order.
func (s State) Names() []string {
	names := make([]string, 0, len(s.devices))
	for name := range s.devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of devices in the state.
func (s State) Len() int {
	return len(s.devices)
}

// WithDevice returns a new State with the device added or replaced.
func (s State) WithDevice(d Device) State {
	m := make(map[string]Device, len(s.devices)+1)
	for k, v := range s.devices {
		m[k] = v
	}
	m[d.Name()] = d
	return State{devices: m}
}

// WithDevices returns a new State with all given devices added or replaced.
func (s State) WithDevices(devices ...Device) State {
	m := make(map[string]Device, len(s.devices)+len(devices))
	for k, v := range s.devices {
		m[k] = v
	}
	for _, d := range devices {
		m[d.Name()] = d
	}
	return State{devices: m}
}

// WithoutDevice returns a new State with the named device removed. Removing
// an absent device is a no-op.
func (s State) WithoutDevice(name string) State {
	if _, ok := s.devices[name]; !ok {
		return s
	}
	m := make(map[string]Device, len(s.devices))
	for k, v := range s.devices {
		if k != name {
			m[k] = v
		}
	}
	return State{devices: m}
}
