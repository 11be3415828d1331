package common

import (
	"errors"
	"strings"
)

// ErrModulePaused is returned by state-changing calls into a paused module.
var ErrModulePaused = errors.New("module paused")

// PauseView reports whether a native module is currently halted.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard fails with ErrModulePaused when module is paused. A nil view pauses
// nothing.
func Guard(p PauseView, module string) error {
	if p != nil && module != "" && p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// PauseSet is a static PauseView built from configuration.
type PauseSet map[string]bool

// NewPauseSet marks every listed module as paused. Names are case-insensitive.
func NewPauseSet(modules ...string) PauseSet {
	set := make(PauseSet, len(modules))
	for _, module := range modules {
		module = strings.ToLower(strings.TrimSpace(module))
		if module != "" {
			set[module] = true
		}
	}
	return set
}

func (s PauseSet) IsPaused(module string) bool {
	return s[strings.ToLower(module)]
}
