// Package tune implements the server's tuning parameters (the tp_*
// values spec §6's -parmfile option overrides): command-quota shape,
// idle/keepalive timeouts, ignore/listener/zombie policy, and the
// force-recursion cap, loaded from and saved to a TOML file.
//
// Grounded on the teacher's internal/config/config.go: the same
// Load/Save/Get/Set-by-dotted-key shape over a single struct, generalized
// from a handful of CLI-preference fields to the tp_* parameter set.
package tune

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Params holds every tp_* tuning parameter the core reads during
// dispatch, connection handling, and MUF execution.
type Params struct {
	CommandTimeMsec     int  `toml:"tp_command_time_msec"`
	CommandsPerTime     int  `toml:"tp_commands_per_time"`
	CommandBurstSize    int  `toml:"tp_command_burst_size"`
	MaxForceLevel       int  `toml:"tp_max_force_level"`
	MaxIdle             int  `toml:"tp_maxidle"` // seconds
	IdlePingTime        int  `toml:"tp_idle_ping_time"` // seconds
	IgnoreBidirectional bool `toml:"tp_ignore_bidirectional"`
	AllowListeners      bool `toml:"tp_allow_listeners"`
	AllowListenersEnv   bool `toml:"tp_allow_listeners_env"`
	AllowZombies        bool `toml:"tp_allow_zombies"`
	ListenMLev          int  `toml:"tp_listen_mlev"`
	StartTLSAllow       bool `toml:"tp_starttls_allow"`
	IdleBootEnabled     bool `toml:"tp_idleboot"`
}

// Default returns the parameter set the server starts with absent a
// -parmfile override, chosen to match the original's stock defaults.
func Default() *Params {
	return &Params{
		CommandTimeMsec:     1000,
		CommandsPerTime:     1,
		CommandBurstSize:    20,
		MaxForceLevel:       1,
		MaxIdle:             3600,
		IdlePingTime:        60,
		IgnoreBidirectional: false,
		AllowListeners:      true,
		AllowListenersEnv:   true,
		AllowZombies:        true,
		ListenMLev:          1,
		StartTLSAllow:       true,
		IdleBootEnabled:     true,
	}
}

// MaxIdleDuration and IdlePingDuration convert the int-seconds fields the
// TOML file stores into the time.Duration the dispatch loop and
// connection manager actually compare against.
func (p *Params) MaxIdleDuration() time.Duration  { return time.Duration(p.MaxIdle) * time.Second }
func (p *Params) IdlePingDuration() time.Duration { return time.Duration(p.IdlePingTime) * time.Second }
func (p *Params) CommandTimeSlice() time.Duration {
	return time.Duration(p.CommandTimeMsec) * time.Millisecond
}

// Load reads path and overlays it onto Default(), so a partial parmfile
// only needs to mention the keys it wants to change.
func Load(path string) (*Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("tune: reading %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("tune: parsing %s: %w", path, err)
	}
	return p, nil
}

// Save writes p to path as TOML.
func Save(p *Params, path string) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("tune: marshaling: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// validKeys lists the dotted keys @tune (the in-game tuning command) and
// -insanity's repair console may read or write.
var validKeys = map[string]bool{
	"command_time_msec":     true,
	"commands_per_time":     true,
	"command_burst_size":    true,
	"max_force_level":       true,
	"maxidle":                true,
	"idle_ping_time":        true,
	"ignore_bidirectional":  true,
	"allow_listeners":       true,
	"allow_zombies":         true,
	"listen_mlev":           true,
	"starttls_allow":        true,
	"idleboot":              true,
}

// Get retrieves a single tuning value by its tp_ key (without the tp_
// prefix), formatted for display.
func (p *Params) Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("tune: unknown key %q", key)
	}
	switch key {
	case "command_time_msec":
		return fmt.Sprintf("%d", p.CommandTimeMsec), nil
	case "commands_per_time":
		return fmt.Sprintf("%d", p.CommandsPerTime), nil
	case "command_burst_size":
		return fmt.Sprintf("%d", p.CommandBurstSize), nil
	case "max_force_level":
		return fmt.Sprintf("%d", p.MaxForceLevel), nil
	case "maxidle":
		return fmt.Sprintf("%d", p.MaxIdle), nil
	case "idle_ping_time":
		return fmt.Sprintf("%d", p.IdlePingTime), nil
	case "ignore_bidirectional":
		return fmt.Sprintf("%v", p.IgnoreBidirectional), nil
	case "allow_listeners":
		return fmt.Sprintf("%v", p.AllowListeners), nil
	case "allow_zombies":
		return fmt.Sprintf("%v", p.AllowZombies), nil
	case "listen_mlev":
		return fmt.Sprintf("%d", p.ListenMLev), nil
	case "starttls_allow":
		return fmt.Sprintf("%v", p.StartTLSAllow), nil
	case "idleboot":
		return fmt.Sprintf("%v", p.IdleBootEnabled), nil
	default:
		return "", fmt.Errorf("tune: unknown key %q", key)
	}
}

// Set assigns value (parsed per the key's type) to the named tuning
// parameter.
func (p *Params) Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("tune: unknown key %q", key)
	}
	var ip *int
	var bp *bool
	switch key {
	case "command_time_msec":
		ip = &p.CommandTimeMsec
	case "commands_per_time":
		ip = &p.CommandsPerTime
	case "command_burst_size":
		ip = &p.CommandBurstSize
	case "max_force_level":
		ip = &p.MaxForceLevel
	case "maxidle":
		ip = &p.MaxIdle
	case "idle_ping_time":
		ip = &p.IdlePingTime
	case "ignore_bidirectional":
		bp = &p.IgnoreBidirectional
	case "allow_listeners":
		bp = &p.AllowListeners
	case "allow_zombies":
		bp = &p.AllowZombies
	case "listen_mlev":
		ip = &p.ListenMLev
	case "starttls_allow":
		bp = &p.StartTLSAllow
	case "idleboot":
		bp = &p.IdleBootEnabled
	}
	if ip != nil {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
			return fmt.Errorf("tune: %s wants an integer: %w", key, err)
		}
		*ip = n
		return nil
	}
	if bp != nil {
		*bp = value == "true" || value == "1" || value == "yes"
		return nil
	}
	return fmt.Errorf("tune: unknown key %q", key)
}
