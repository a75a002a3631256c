package process

import (
	"fmt"

	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/types"
)

// CheckPermissions verifies that the output a process produced is one its
// role may produce. The domain rule: environments own sensor values,
// controllers own actuator values. A violation is a programming bug, not an
// operational hiccup, so it propagates past the process-level recovery up
// to the runner.
//
// Checks applied to every producer regardless of role:
//   - a device name never changes its sensor/actuator kind
//   - a carried device's timestamp never regresses
//
// Environment: must not rewrite the value of any actuator present in the
// input. Reading hardware is its job, so it may inject or update sensors
// freely, and it may carry actuators through untouched.
//
// Controller: must not change any sensor, must not mint or remove devices.
// It may value-replace actuators, including into a role where the actuator
// was not yet present (the conventional "desired" write), as long as the
// actuator exists somewhere in the input. Latched quality (failed or
// unavailable) may only be cleared by an environment.
func CheckPermissions(role Role, in, out types.StateMap) error {
	inUnion := unionByName(in)

	for _, roleName := range out.Roles() {
		outState, _ := out.Role(roleName)
		inState, _ := in.Role(roleName)

		for _, name := range outState.Names() {
			d, _ := outState.Device(name)

			prior, sameRole := inState.Device(name)
			if !sameRole {
				var anywhere bool
				prior, anywhere = inUnion[name]
				if !anywhere {
					if role == RoleController {
						return violation("controller introduced device %q in role %q", name, roleName)
					}
					continue
				}
				if role == RoleController && d.Kind() == types.KindSensor {
					return violation("controller introduced sensor %q into role %q", name, roleName)
				}
			}

			if d.Kind() != prior.Kind() {
				return violation("device %q changed kind from %s to %s", name, prior.Kind(), d.Kind())
			}
			if sameRole && d.Timestamp() < prior.Timestamp() {
				return violation("device %q timestamp regressed in role %q", name, roleName)
			}
			if role != RoleEnvironment && prior.Quality().Latched() && !d.Quality().Latched() {
				return violation("device %q quality reset without environment re-attest", name)
			}

			switch role {
			case RoleEnvironment:
				if d.Kind() == types.KindActuator && d.Value() != prior.Value() {
					return violation("environment changed actuator %q value in role %q", name, roleName)
				}
			case RoleController:
				if d.Kind() == types.KindSensor && d.Value() != prior.Value() {
					return violation("controller changed sensor %q value in role %q", name, roleName)
				}
			}
		}

		// Controllers never remove a device from a role they received.
		if role == RoleController {
			for _, name := range inState.Names() {
				if !outState.Has(name) {
					return violation("controller removed device %q from role %q", name, roleName)
				}
			}
		}
	}

	// Controllers propagate every input role.
	if role == RoleController {
		for _, roleName := range in.Roles() {
			if !out.Has(roleName) {
				return violation("controller dropped role %q", roleName)
			}
		}
	}

	return nil
}

func violation(format string, args ...any) error {
	return errors.WrapPermission(fmt.Errorf(format, args...), "Arbiter", "CheckPermissions", "output verification")
}

// unionByName indexes every device in the state map by name, regardless of
// role. Later roles do not override earlier ones in any meaningful way;
// kind is stable by invariant so any representative works for kind checks.
func unionByName(m types.StateMap) map[string]types.Device {
	union := make(map[string]types.Device)
	for _, roleName := range m.Roles() {
		s, _ := m.Role(roleName)
		for _, name := range s.Names() {
			if _, ok := union[name]; !ok {
				d, _ := s.Device(name)
				union[name] = d
			}
		}
	}
	return union
}
