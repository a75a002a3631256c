// Package types defines the data model shared across the system: devices,
// immutable state snapshots, and the named state bundles that flow between
// processes.
package types

import (
	"github.com/google/uuid"
)

// Kind distinguishes the two device variants. The kind of a device is fixed
// at construction and never changes across a run.
type Kind int

const (
	// KindSensor reports the world: temperatures, tachometer speeds,
	// voltages.
	KindSensor Kind = iota
	// KindActuator commands the world: fan drive levels, pump rates,
	// thermal limits.
	KindActuator
)

// String returns a string representation of the device kind
func (k Kind) String() string {
	switch k {
	case KindSensor:
		return "sensor"
	case KindActuator:
		return "actuator"
	default:
		return "unknown"
	}
}

// Quality is the per-device attestation tag.
type Quality int

const (
	// QualityValid indicates a fresh, trustworthy reading
	QualityValid Quality = iota
	// QualityStale indicates the last reading is old but plausible
	QualityStale
	// QualityFailed indicates the device reported but the value is bad
	QualityFailed
	// QualityUnavailable indicates the device cannot currently be reached
	QualityUnavailable
)

// String returns a string representation of the quality tag
func (q Quality) String() string {
	switch q {
	case QualityValid:
		return "valid"
	case QualityStale:
		return "stale"
	case QualityFailed:
		return "failed"
	case QualityUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Latched reports whether this quality requires an environment re-attest
// before the device may be trusted again.
func (q Quality) Latched() bool {
	return q == QualityFailed || q == QualityUnavailable
}

// ParseQuality converts a string form back to a Quality tag.
func ParseQuality(s string) (Quality, bool) {
	switch s {
	case "valid":
		return QualityValid, true
	case "stale":
		return QualityStale, true
	case "failed":
		return QualityFailed, true
	case "unavailable":
		return QualityUnavailable, true
	default:
		return QualityValid, false
	}
}

// Device is a named hardware interface point. The required fields (value,
// timestamp, quality) are first-class; everything else a hardware layer
// wants to attach (min, max, label, scale, unit, filesystem paths) lives in
// the extension attribute map.
//
// Device is a value: all mutation goes through With* methods that return a
// fresh copy, so devices can be shared between states without copying.
type Device struct {
	name      string
	id        uuid.UUID
	kind      Kind
	value     float64
	timestamp int64
	quality   Quality
	attrs     map[string]Attr
}

// NewSensor creates a sensor device.
func NewSensor(name string, value float64, timestamp int64) Device {
	return newDevice(name, KindSensor, value, timestamp)
}

// NewActuator creates an actuator device.
func NewActuator(name string, value float64, timestamp int64) Device {
	return newDevice(name, KindActuator, value, timestamp)
}

func newDevice(name string, kind Kind, value float64, timestamp int64) Device {
	return Device{
		name:      name,
		id:        uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name+".device.aifand")),
		kind:      kind,
		value:     value,
		timestamp: timestamp,
		quality:   QualityValid,
	}
}

// Name returns the device name
func (d Device) Name() string { return d.name }

// ID returns the stable identifier derived from the device name
func (d Device) ID() uuid.UUID { return d.id }

// Kind returns the device variant tag
func (d Device) Kind() Kind { return d.kind }

// Value returns the current reading or setting
func (d Device) Value() float64 { return d.value }

// Timestamp returns the monotonic nanosecond time of the last update
func (d Device) Timestamp() int64 { return d.timestamp }

// Quality returns the attestation tag
func (d Device) Quality() Quality { return d.quality }

// WithValue returns a copy with a new value and update timestamp.
func (d Device) WithValue(value float64, timestamp int64) Device {
	d.value = value
	d.timestamp = timestamp
	return d
}

// WithQuality returns a copy with a new quality tag.
func (d Device) WithQuality(q Quality) Device {
	d.quality = q
	return d
}

// WithTimestamp returns a copy stamped at the given time.
func (d Device) WithTimestamp(timestamp int64) Device {
	d.timestamp = timestamp
	return d
}

// Attr returns the named extension attribute.
func (d Device) Attr(key string) (Attr, bool) {
	a, ok := d.attrs[key]
	return a, ok
}

// WithAttr returns a copy with the extension attribute set. The attribute
// map is copied, never shared with the receiver.
func (d Device) WithAttr(key string, a Attr) Device {
	attrs := make(map[string]Attr, len(d.attrs)+1)
	for k, v := range d.attrs {
		attrs[k] = v
	}
	attrs[key] = a
	d.attrs = attrs
	return d
}

// AttrKeys returns the extension attribute keys present on the device.
func (d Device) AttrKeys() []string {
	keys := make([]string, 0, len(d.attrs))
	for k := range d.attrs {
		keys = append(keys, k)
	}
	return keys
}
