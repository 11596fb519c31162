// Package ppconfig holds the mode configuration record described in
// spec.md §3.1: the context-handling mode, the trace flag, and the
// three macro sizing constants, plus the override-with-warning
// semantics the original tool applies when a flag is set more than
// once. It also loads an optional YAML defaults file for the macro
// constants via viper, following the shape of the teacher's
// internal/config.Load.
package ppconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjy-dev/pdpp/internal/pplog"
)

// CtxMode selects which of the two code-generation strategies the
// emitter follows for an entire input file.
type CtxMode int

const (
	// CtxCheck is the default: context variables keep their original
	// declaration scope so the C compiler flags out-of-scope uses
	// after a suspension.
	CtxCheck CtxMode = iota
	// CtxOptimized hoists all context variables to the top of the
	// function; the fast path through a wait performs no copy.
	CtxOptimized
)

func (m CtxMode) String() string {
	if m == CtxOptimized {
		return "optimized"
	}
	return "ctxcheck"
}

// Variable names accepted by -v/--var.
const (
	VarScratchBytes = "PDEVT_SCRATCH_BYTES"
	VarMergeSize    = "PDEVT_MERGE_SIZE"
	VarListSize     = "PDEVT_LIST_SIZE"
)

// Factory defaults from spec.md §3.1.
const (
	defaultScratchBytes = 1024
	defaultMergeSize    = 4
	defaultListSize     = 4
)

// Config is the mode configuration record. It is built up by
// repeated calls to ApplyMode/SetVariable during flag parsing and
// then frozen with FillDefaults before being handed to the rest of
// the pipeline; nothing downstream mutates it.
type Config struct {
	CtxMode CtxMode
	Trace   bool
	Debug   bool

	ScratchBytes int
	MergeSize    int
	ListSize     int

	ctxModeSet bool
	traceSet   bool
}

// New returns a Config with the macro constants at their documented
// defaults and CtxMode/Trace left unset (FillDefaults resolves them).
func New() *Config {
	return &Config{
		ScratchBytes: defaultScratchBytes,
		MergeSize:    defaultMergeSize,
		ListSize:     defaultListSize,
	}
}

// ApplyMode parses one comma-separated -m/--mode value and folds its
// flags into the config. Recognized flags: "optimized", "ctxcheck",
// "trace". Setting the context mode or the trace flag more than once
// is an advisory condition (spec.md §7.3): the new value wins and a
// warning is logged.
func (c *Config) ApplyMode(raw string, log *pplog.Logger) error {
	for _, flag := range strings.Split(raw, ",") {
		flag = strings.TrimSpace(flag)
		switch flag {
		case "optimized":
			c.setCtxMode(CtxOptimized, log)
		case "ctxcheck":
			c.setCtxMode(CtxCheck, log)
		case "trace":
			c.setTrace(true, log)
		default:
			return fmt.Errorf("unknown value given to 'mode' parameter: %q", flag)
		}
	}
	return nil
}

func (c *Config) setCtxMode(mode CtxMode, log *pplog.Logger) {
	if c.ctxModeSet {
		log.Warn("setting the context mode multiple times, overriding with %s", mode)
	}
	c.CtxMode = mode
	c.ctxModeSet = true
}

func (c *Config) setTrace(on bool, log *pplog.Logger) {
	if c.traceSet {
		log.Warn("setting the trace mode multiple times, overriding with %v", on)
	}
	c.Trace = on
	c.traceSet = true
}

// SetVariable assigns one of the three macro sizing constants by
// name. An unknown name is a usage error.
func (c *Config) SetVariable(name string, value int) error {
	switch name {
	case VarScratchBytes:
		c.ScratchBytes = value
	case VarMergeSize:
		c.MergeSize = value
	case VarListSize:
		c.ListSize = value
	default:
		return fmt.Errorf("unknown variable name %q", name)
	}
	return nil
}

// ParseVarFlag splits a "-v NAME=INT" argument and applies it.
func (c *Config) ParseVarFlag(raw string) error {
	name, valueStr, ok := strings.Cut(raw, "=")
	if !ok {
		return fmt.Errorf("illegal format for variable %q: expected 'name=value'", raw)
	}
	name = strings.TrimSpace(name)
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return fmt.Errorf("illegal format for variable %q: value must be an integer", raw)
	}
	return c.SetVariable(name, value)
}

// FillDefaults resolves CtxMode/Trace to their documented defaults
// (checked mode, trace on) if no -m flag ever set them.
func (c *Config) FillDefaults() {
	if !c.ctxModeSet {
		c.CtxMode = CtxCheck
	}
	if !c.traceSet {
		c.Trace = true
	}
}

// Defaults holds the subset of Config that may be preset from a YAML
// file via --config, read before any -v flag is applied.
type Defaults struct {
	ScratchBytes int `mapstructure:"scratch_bytes"`
	MergeSize    int `mapstructure:"merge_size"`
	ListSize     int `mapstructure:"list_size"`
}

// LoadDefaults reads the macro sizing constants from a YAML file at
// path, following the teacher's internal/config.Load shape
// (viper.SetConfigFile + ReadInConfig + Unmarshal). A zero field in
// the file leaves the corresponding Config default untouched.
func LoadDefaults(path string) (*Defaults, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var d Defaults
	if err := v.Unmarshal(&d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
	}
	return &d, nil
}

// Apply overlays non-zero defaults onto the config. Call this before
// processing -v flags so that command-line values still win.
func (c *Config) Apply(d *Defaults) {
	if d == nil {
		return
	}
	if d.ScratchBytes != 0 {
		c.ScratchBytes = d.ScratchBytes
	}
	if d.MergeSize != 0 {
		c.MergeSize = d.MergeSize
	}
	if d.ListSize != 0 {
		c.ListSize = d.ListSize
	}
}
