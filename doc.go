// Package aifand provides the execution core of an adaptive thermal
// management daemon: it reads temperatures and related sensors, decides
// fan/pump/cooling actuator settings, and writes those settings back to
// hardware.
//
// # Architecture
//
// The core is a small tower of abstractions, leaves first:
//
//	┌─────────────────────────────────────┐
//	│          Runner                     │  Autonomous loop,
//	│   (standard clock / simulated)      │  pluggable time source
//	└─────────────────────────────────────┘
//	           ↓ drives
//	┌─────────────────────────────────────┐
//	│   Pipeline          System          │  Serial fold /
//	│   (in order)        (min-heap)      │  independent cadences
//	└─────────────────────────────────────┘
//	           ↓ composed of
//	┌─────────────────────────────────────┐
//	│         Processes                   │  Environments read and
//	│  (environments, controllers, ...)   │  write the world,
//	└─────────────────────────────────────┘  controllers decide
//	           ↓ transform
//	┌─────────────────────────────────────┐
//	│    StateMap → State → Device        │  Immutable snapshots of
//	│  ("actual", "desired", ...)         │  sensors and actuators
//	└─────────────────────────────────────┘
//
// A runner repeatedly invokes Execute on its root process at the cadence
// the process reports. A pipeline threads the state map through its
// children in order; conventionally an environment at the head overwrites
// "actual" with fresh sensor readings, controllers turn "actual" into
// "desired" actuator commands, and an environment at the tail writes those
// commands outward. A system runs every child whose deadline has arrived,
// each with an empty state map, and re-schedules each one.
//
// # Safety model
//
// Two rules keep a misbehaving stage from taking the loop down:
//
//   - Operational failures inside a process are logged and absorbed; the
//     process passes its input through unchanged and thermal control
//     continues.
//   - The permission arbiter verifies every process's output against its
//     role: environments own sensor values, controllers own actuator
//     values. Violations are programming errors and halt the runner.
//
// # Packages
//
//   - types: devices, immutable states, role-keyed state maps
//   - clock: context-carried pluggable time source
//   - process: Process contract, three-hook Base, Stateful history,
//     permission arbiter
//   - pkg/history: the timestamped buffer behind stateful processes
//   - compose: Pipeline and System
//   - runner: Standard (real time) and Fast (simulated time) loops
//   - config: YAML parsing and the process factory registry
//   - metric: Prometheus registration and exposure
//   - controllers/..., environments/..., output/..., storage/...: bundled
//     leaf processes; external collaborators plug in the same way
//
// Domain-specific hardware access (Linux hwmon discovery, protocol
// servers) lives outside this module and plugs into the core by
// implementing Process.
package aifand
