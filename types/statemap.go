package types

import "sort"

// Reserved role names. Additional roles are permitted and pass through
// processes untouched.
const (
	// RoleActual carries current measurements, supplied by an environment
	RoleActual = "actual"
	// RoleDesired carries setpoints and commands, produced by controllers
	RoleDesired = "desired"
)

// StateMap maps role names to state snapshots. Like State it is immutable:
// the zero value is a valid empty map and every modification returns a
// fresh value. StateMaps are per-tick values.
type StateMap struct {
	states map[string]State
}

// NewStateMap returns an empty state map; add roles with With.
func NewStateMap() StateMap {
	return StateMap{}
}

// Role returns the state bound to the given role name.
func (m StateMap) Role(name string) (State, bool) {
	s, ok := m.states[name]
	return s, ok
}

// Has reports whether the role is present.
func (m StateMap) Has(name string) bool {
	_, ok := m.states[name]
	return ok
}

// Roles returns all role names in sorted order.
func (m StateMap) Roles() []string {
	roles := make([]string, 0, len(m.states))
	for role := range m.states {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// Len returns the number of roles present.
func (m StateMap) Len() int {
	return len(m.states)
}

// With returns a new StateMap with the role bound to the given state.
func (m StateMap) With(role string, s State) StateMap {
	states := make(map[string]State, len(m.states)+1)
	for k, v := range m.states {
		states[k] = v
	}
	states[role] = s
	return StateMap{states: states}
}

// Without returns a new StateMap with the role removed.
func (m StateMap) Without(role string) StateMap {
	if _, ok := m.states[role]; !ok {
		return m
	}
	states := make(map[string]State, len(m.states))
	for k, v := range m.states {
		if k != role {
			states[k] = v
		}
	}
	return StateMap{states: states}
}

// Actual returns the state bound to the reserved "actual" role.
func (m StateMap) Actual() (State, bool) {
	return m.Role(RoleActual)
}

// Desired returns the state bound to the reserved "desired" role.
func (m StateMap) Desired() (State, bool) {
	return m.Role(RoleDesired)
}
