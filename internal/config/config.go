// Package config loads the environment-derived tunables for both the
// SlotProxy and WSJFScheduler daemons. There is no configuration file and
// no CLI surface beyond startup, by design: every knob is an env var with a
// sane default.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ScoreMode selects one of Core A's two admission strategies. The choice is
// made once at process start and baked into the handler; it is never
// smuggled through a runtime flag.
type ScoreMode string

const (
	StrictSlide ScoreMode = "strict_slide"
	AvgGap      ScoreMode = "avg_gap"
)

// SlotProxy holds every tunable named in spec §6 for Core A.
type SlotProxy struct {
	ListenAddr   string
	BackendAddr  string
	MaxSlots     int
	MaxPending   int
	PermitWait   time.Duration
	FirstTimeout time.Duration
	SecondTimeout time.Duration
	HardHeaderTimeout time.Duration
	MaxHeaderBytes int
	BufferSize   int
	ScoreMode    ScoreMode

	// StrictSlideAcceptSingleSegment resolves the open question in spec
	// §9: whether a request that arrives whole in the first read should be
	// admitted immediately under strict_slide instead of waiting out
	// SecondTimeout. Default false matches the source's observed behavior.
	StrictSlideAcceptSingleSegment bool

	MetricsAddr string
	LogLevel    string
}

// WSJFScheduler holds every tunable named in spec §6 for Core B.
type WSJFScheduler struct {
	ListenAddr   string
	BackendAddr  string
	SendDelay    time.Duration
	ReconnectDelay time.Duration
	MonitorInterval time.Duration
	BufferSize   int

	MetricsAddr string
	LogLevel    string
}

func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadSlotProxy reads SLOTPROXY_* environment variables, falling back to
// the defaults specified in spec §6.
func LoadSlotProxy() (SlotProxy, error) {
	v := newViper("SLOTPROXY")
	v.SetDefault("listen_addr", "0.0.0.0:80")
	v.SetDefault("backend_addr", "127.0.0.1:8080")
	v.SetDefault("max_slots", 20)
	v.SetDefault("max_pending", 200)
	v.SetDefault("permit_wait_ms", 50)
	v.SetDefault("first_timeout_sec", 5)
	v.SetDefault("second_timeout_sec", 10)
	v.SetDefault("hard_header_timeout_sec", 15)
	v.SetDefault("max_header_bytes", 64*1024)
	v.SetDefault("buffer_size", 4096)
	v.SetDefault("score_mode", string(AvgGap))
	v.SetDefault("strict_slide_accept_single_segment", false)
	v.SetDefault("metrics_addr", ":9100")
	v.SetDefault("log_level", "info")

	mode := ScoreMode(strings.ToLower(v.GetString("score_mode")))
	if mode != StrictSlide && mode != AvgGap {
		return SlotProxy{}, fmt.Errorf("config: invalid score_mode %q, want %q or %q", mode, StrictSlide, AvgGap)
	}

	cfg := SlotProxy{
		ListenAddr:        v.GetString("listen_addr"),
		BackendAddr:       v.GetString("backend_addr"),
		MaxSlots:          v.GetInt("max_slots"),
		MaxPending:        v.GetInt("max_pending"),
		PermitWait:        time.Duration(v.GetInt("permit_wait_ms")) * time.Millisecond,
		FirstTimeout:      time.Duration(v.GetInt("first_timeout_sec")) * time.Second,
		SecondTimeout:     time.Duration(v.GetInt("second_timeout_sec")) * time.Second,
		HardHeaderTimeout: time.Duration(v.GetInt("hard_header_timeout_sec")) * time.Second,
		MaxHeaderBytes:    v.GetInt("max_header_bytes"),
		BufferSize:        v.GetInt("buffer_size"),
		ScoreMode:         mode,
		StrictSlideAcceptSingleSegment: v.GetBool("strict_slide_accept_single_segment"),
		MetricsAddr:       v.GetString("metrics_addr"),
		LogLevel:          v.GetString("log_level"),
	}
	if cfg.MaxSlots <= 0 {
		return SlotProxy{}, fmt.Errorf("config: max_slots must be positive, got %d", cfg.MaxSlots)
	}
	if cfg.MaxPending <= 0 {
		return SlotProxy{}, fmt.Errorf("config: max_pending must be positive, got %d", cfg.MaxPending)
	}
	return cfg, nil
}

// LoadWSJFScheduler reads WSJF_* environment variables, falling back to the
// defaults specified in spec §6.
func LoadWSJFScheduler() (WSJFScheduler, error) {
	v := newViper("WSJF")
	v.SetDefault("listen_addr", "0.0.0.0:5201")
	v.SetDefault("backend_addr", "127.0.0.1:8080")
	v.SetDefault("send_delay_ms", 50)
	v.SetDefault("reconnect_delay_sec", 1)
	v.SetDefault("monitor_interval_sec", 1)
	v.SetDefault("buffer_size", 4096)
	v.SetDefault("metrics_addr", ":9101")
	v.SetDefault("log_level", "info")

	cfg := WSJFScheduler{
		ListenAddr:      v.GetString("listen_addr"),
		BackendAddr:     v.GetString("backend_addr"),
		SendDelay:       time.Duration(v.GetInt("send_delay_ms")) * time.Millisecond,
		ReconnectDelay:  time.Duration(v.GetInt("reconnect_delay_sec")) * time.Second,
		MonitorInterval: time.Duration(v.GetInt("monitor_interval_sec")) * time.Second,
		BufferSize:      v.GetInt("buffer_size"),
		MetricsAddr:     v.GetString("metrics_addr"),
		LogLevel:        v.GetString("log_level"),
	}
	if cfg.BufferSize <= 0 {
		return WSJFScheduler{}, fmt.Errorf("config: buffer_size must be positive, got %d", cfg.BufferSize)
	}
	return cfg, nil
}
