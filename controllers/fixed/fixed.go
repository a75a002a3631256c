// Package fixed provides a controller that applies constant values to
// actuators. It is the simplest possible controller: stateless, no memory,
// no feedback. It is useful for testing, debugging, and scenarios where constant
// thermal output is desired.
package fixed

import (
	"context"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// Controller applies configured fixed values to actuators present in its
// input. Actuators named in the settings but absent from the input are
// skipped with a warning; a controller never mints devices.
type Controller struct {
	process.Base
	settings map[string]float64
}

// New creates a fixed controller. settings maps actuator names to the
// values to apply.
func New(name string, interval int64, settings map[string]float64, opts ...process.Option) *Controller {
	c := &Controller{
		Base:     process.NewBase(name, process.RoleController, interval, opts...),
		settings: settings,
	}
	c.Bind(c)
	return c
}

// ExportState emits the input with every configured actuator value-replaced
// in the role where it was found.
func (c *Controller) ExportState(ctx context.Context) (types.StateMap, error) {
	out := c.Input()
	now := clock.Now(ctx)

	for _, roleName := range out.Roles() {
		state, _ := out.Role(roleName)
		changed := false
		for name, value := range c.settings {
			d, ok := state.Device(name)
			if !ok || d.Kind() != types.KindActuator {
				continue
			}
			state = state.WithDevice(d.WithValue(value, now))
			changed = true
		}
		if changed {
			out = out.With(roleName, state)
		}
	}

	for name := range c.settings {
		if !anyRoleHasActuator(out, name) {
			c.Logger().Warn("configured actuator not present in input", "actuator", name)
		}
	}
	return out, nil
}

func anyRoleHasActuator(m types.StateMap, name string) bool {
	for _, roleName := range m.Roles() {
		s, _ := m.Role(roleName)
		if d, ok := s.Device(name); ok && d.Kind() == types.KindActuator {
			return true
		}
	}
	return false
}
