// Package sim provides a first-order thermal simulation environment. Each
// simulated sensor tracks a heat source pulled down by one cooling actuator
// and floored at ambient. The environment behaves identically at the head
// or the tail of a pipeline: it reads its model into "actual", propagates
// untouched roles, and applies "desired" actuator commands to the model
// when they are present.
package sim

import (
	"context"
	"fmt"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// ZoneConfig describes one simulated thermal zone: a temperature sensor
// heated at a constant rate and cooled proportionally to its actuator's
// drive level.
type ZoneConfig struct {
	Sensor   string  `yaml:"sensor"`
	Actuator string  `yaml:"actuator"`
	Initial  float64 `yaml:"initial"`
	Ambient  float64 `yaml:"ambient"`
	// HeatRate is degrees per second added by the heat source
	HeatRate float64 `yaml:"heat_rate"`
	// CoolRate is degrees per second removed per unit of actuator drive
	CoolRate float64 `yaml:"cool_rate"`
}

// Config holds the serializable simulation parameters.
type Config struct {
	Zones []ZoneConfig `yaml:"zones"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if len(c.Zones) == 0 {
		return errors.WrapConfig(errors.ErrMissingConfig, "Config", "Validate", "at least one zone is required")
	}
	seen := make(map[string]bool)
	for _, z := range c.Zones {
		if z.Sensor == "" || z.Actuator == "" {
			return errors.WrapConfig(errors.ErrMissingConfig, "Config", "Validate", "zone sensor and actuator are required")
		}
		if seen[z.Sensor] {
			return errors.WrapConfig(errors.ErrDuplicateName, "Config", "Validate", fmt.Sprintf("sensor %q", z.Sensor))
		}
		seen[z.Sensor] = true
	}
	return nil
}

// Environment simulates the zones and exposes them as devices. Model state
// (current temperatures, applied drive levels) is runtime-only and resets
// on Initialize.
type Environment struct {
	process.Base
	cfg Config

	temps    map[string]float64
	drive    map[string]float64
	lastTick int64
}

// New creates a simulation environment.
func New(name string, interval int64, cfg Config, opts ...process.Option) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Environment{
		Base: process.NewBase(name, process.RoleEnvironment, interval, opts...),
		cfg:  cfg,
	}
	e.Bind(e)
	return e, nil
}

// Initialize resets the thermal model to its configured initial state.
func (e *Environment) Initialize(now int64) {
	e.Base.Initialize(now)
	e.temps = make(map[string]float64, len(e.cfg.Zones))
	e.drive = make(map[string]float64, len(e.cfg.Zones))
	for _, z := range e.cfg.Zones {
		e.temps[z.Sensor] = z.Initial
		e.drive[z.Actuator] = 0
	}
	e.lastTick = -1
}

// Temperature returns the model temperature of the named sensor.
func (e *Environment) Temperature(sensor string) float64 {
	return e.temps[sensor]
}

// Think applies desired actuator commands to the model and advances the
// physics by the elapsed simulated time.
func (e *Environment) Think(ctx context.Context) error {
	now := clock.Now(ctx)

	if desired, ok := e.Input().Desired(); ok {
		for _, z := range e.cfg.Zones {
			if d, ok := desired.Device(z.Actuator); ok && d.Kind() == types.KindActuator {
				e.drive[z.Actuator] = d.Value()
			}
		}
	}

	if e.lastTick >= 0 && now > e.lastTick {
		dt := float64(now-e.lastTick) / 1e9
		for _, z := range e.cfg.Zones {
			t := e.temps[z.Sensor] + dt*(z.HeatRate-z.CoolRate*e.drive[z.Actuator])
			if t < z.Ambient {
				t = z.Ambient
			}
			e.temps[z.Sensor] = t
		}
	}
	e.lastTick = now
	return nil
}

// ExportState emits the model readings into "actual". Sensors are freshly
// stamped; actuator devices present in the input carry through untouched,
// absent ones are introduced at their current drive level.
func (e *Environment) ExportState(ctx context.Context) (types.StateMap, error) {
	now := clock.Now(ctx)
	out := e.Input()
	actual, _ := out.Actual()

	for _, z := range e.cfg.Zones {
		sensor, ok := actual.Device(z.Sensor)
		if !ok {
			sensor = types.NewSensor(z.Sensor, e.temps[z.Sensor], now)
		}
		actual = actual.WithDevice(sensor.WithValue(e.temps[z.Sensor], now))

		if _, ok := actual.Device(z.Actuator); !ok {
			actual = actual.WithDevice(types.NewActuator(z.Actuator, e.drive[z.Actuator], now))
		}
	}
	return out.With(types.RoleActual, actual), nil
}
