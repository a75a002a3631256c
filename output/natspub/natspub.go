// Package natspub provides a pass-through process that publishes each
// tick's state map as a JSON snapshot on a NATS subject. It demonstrates
// the observation side of the plug-in contract: it reads everything,
// mutates nothing, and its delivery problems never disturb the control
// loop.
package natspub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// Config holds configuration for the NATS publisher
type Config struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Subject == "" {
		return errors.WrapConfig(errors.ErrMissingConfig, "Config", "Validate", "subject is required")
	}
	return nil
}

// snapshot is the wire form of one tick
type snapshot struct {
	Time  int64                            `json:"time"`
	Roles map[string]map[string]deviceJSON `json:"roles"`
}

type deviceJSON struct {
	Kind      string  `json:"kind"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Quality   string  `json:"quality"`
}

// Output publishes state map snapshots. The connection is established
// lazily on first use so construction never performs I/O; connect and
// publish failures are operational and absorbed at the process boundary.
type Output struct {
	process.Base
	url     string
	subject string

	mu sync.Mutex
	nc *nats.Conn
}

// New creates a NATS publisher process.
func New(name string, interval int64, cfg Config, opts ...process.Option) (*Output, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}
	o := &Output{
		Base:    process.NewBase(name, process.RoleNone, interval, opts...),
		url:     url,
		subject: cfg.Subject,
	}
	o.Bind(o)
	return o, nil
}

// Think publishes the current input as a snapshot. The input itself flows
// through untouched via the pass-through export.
func (o *Output) Think(ctx context.Context) error {
	conn, err := o.connect()
	if err != nil {
		return errors.WrapOperational(err, "Output", "Think", "nats connect")
	}

	payload, err := json.Marshal(encode(clock.Now(ctx), o.Input()))
	if err != nil {
		return errors.WrapOperational(err, "Output", "Think", "snapshot marshal")
	}
	if err := conn.Publish(o.subject, payload); err != nil {
		return errors.WrapOperational(err, "Output", "Think", "publish")
	}
	return nil
}

func (o *Output) connect() (*nats.Conn, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.nc != nil && o.nc.IsConnected() {
		return o.nc, nil
	}
	nc, err := nats.Connect(o.url,
		nats.Name(o.Name()),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	o.nc = nc
	return nc, nil
}

// Close releases the NATS connection.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.nc != nil {
		o.nc.Close()
		o.nc = nil
	}
}

func encode(now int64, m types.StateMap) snapshot {
	s := snapshot{Time: now, Roles: make(map[string]map[string]deviceJSON, m.Len())}
	for _, roleName := range m.Roles() {
		state, _ := m.Role(roleName)
		devices := make(map[string]deviceJSON, state.Len())
		for _, name := range state.Names() {
			d, _ := state.Device(name)
			devices[name] = deviceJSON{
				Kind:      d.Kind().String(),
				Value:     d.Value(),
				Timestamp: d.Timestamp(),
				Quality:   d.Quality().String(),
			}
		}
		s.Roles[roleName] = devices
	}
	return s
}
