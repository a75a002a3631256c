// Package pid provides a proportional-integral-derivative controller. It is
// the canonical stateful process: the derivative term comes from the history
// buffer, not from hidden instance state, so a restart rebuilds cleanly from
// configuration alone.
package pid

import (
	"context"
	"fmt"
	"time"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// Config holds the serializable controller parameters.
type Config struct {
	Sensor   string  `yaml:"sensor"`
	Actuator string  `yaml:"actuator"`
	Setpoint float64 `yaml:"setpoint"`
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	OutMin   float64 `yaml:"out_min"`
	OutMax   float64 `yaml:"out_max"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Sensor == "" {
		return errors.WrapConfig(errors.ErrMissingConfig, "Config", "Validate", "sensor is required")
	}
	if c.Actuator == "" {
		return errors.WrapConfig(errors.ErrMissingConfig, "Config", "Validate", "actuator is required")
	}
	if c.OutMax < c.OutMin {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Config", "Validate", "out_max below out_min")
	}
	return nil
}

// Controller drives one actuator from one sensor. Error is measured minus
// setpoint, so a positive gain raises the actuator as the temperature
// climbs above target.
type Controller struct {
	process.Stateful
	cfg Config

	// runtime state, rebuilt by Initialize
	integral   float64
	derivative float64
	output     float64
}

// New creates a PID controller.
func New(name string, interval int64, cfg Config, opts ...process.Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		Stateful: process.NewStateful(name, process.RoleController, interval, opts...),
		cfg:      cfg,
	}
	c.Bind(c)
	return c, nil
}

// Initialize resets cadence, history, and the accumulated terms.
func (c *Controller) Initialize(now int64) {
	c.Stateful.Initialize(now)
	c.integral = 0
	c.derivative = 0
	c.output = 0
}

// Derivative returns the last computed derivative-of-error term in units
// per second.
func (c *Controller) Derivative() float64 { return c.derivative }

// Output returns the last computed actuator command.
func (c *Controller) Output() float64 { return c.output }

// Think computes the new actuator command from the two most recent history
// entries. With fewer than two entries only the proportional term is
// active.
func (c *Controller) Think(context.Context) error {
	latest, ok := c.History().Latest()
	if !ok {
		return errors.WrapOperational(fmt.Errorf("history empty"), "PID", "Think", "reading history")
	}

	value, ok := sensorValue(latest.States, c.cfg.Sensor)
	if !ok {
		return errors.WrapOperational(
			fmt.Errorf("sensor %q: %w", c.cfg.Sensor, errors.ErrDeviceNotFound), "PID", "Think", "reading sensor")
	}
	e := value - c.cfg.Setpoint

	c.derivative = 0
	entries := c.History().Range(0, latest.Timestamp-1)
	if n := len(entries); n > 0 {
		prev := entries[n-1]
		if dt := float64(latest.Timestamp-prev.Timestamp) / float64(time.Second); dt > 0 {
			if prevValue, ok := sensorValue(prev.States, c.cfg.Sensor); ok {
				c.derivative = (e - (prevValue - c.cfg.Setpoint)) / dt
				c.integral += e * dt
			}
		}
	}

	c.output = clamp(c.cfg.Kp*e+c.cfg.Ki*c.integral+c.cfg.Kd*c.derivative, c.cfg.OutMin, c.cfg.OutMax)
	return nil
}

// ExportState writes the command into the desired role, value-replacing the
// actuator found in the input.
func (c *Controller) ExportState(ctx context.Context) (types.StateMap, error) {
	in := c.Input()
	act, ok := findActuator(in, c.cfg.Actuator)
	if !ok {
		return types.StateMap{}, errors.WrapOperational(
			fmt.Errorf("actuator %q: %w", c.cfg.Actuator, errors.ErrDeviceNotFound), "PID", "ExportState", "locating actuator")
	}

	desired, _ := in.Desired()
	return in.With(types.RoleDesired, desired.WithDevice(act.WithValue(c.output, clock.Now(ctx)))), nil
}

func sensorValue(m types.StateMap, name string) (float64, bool) {
	actual, ok := m.Actual()
	if !ok {
		return 0, false
	}
	d, ok := actual.Device(name)
	if !ok || d.Kind() != types.KindSensor {
		return 0, false
	}
	return d.Value(), true
}

func findActuator(m types.StateMap, name string) (types.Device, bool) {
	// prefer the desired role, then any other role
	if desired, ok := m.Desired(); ok {
		if d, ok := desired.Device(name); ok && d.Kind() == types.KindActuator {
			return d, true
		}
	}
	for _, roleName := range m.Roles() {
		s, _ := m.Role(roleName)
		if d, ok := s.Device(name); ok && d.Kind() == types.KindActuator {
			return d, true
		}
	}
	return types.Device{}, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
