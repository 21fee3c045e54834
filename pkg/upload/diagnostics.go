package upload

import (
	"sync"

	"github.com/sipeed/picoclaw-files/pkg/logger"
)

// Diagnostics remembers which one-time warnings were already emitted.
// Share one instance for as long as the warnings should stay quiet,
// usually the lifetime of the process.
type Diagnostics struct {
	mu     sync.Mutex
	warned map[string]bool
}

// NewDiagnostics returns an empty Diagnostics with no warnings emitted.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{warned: make(map[string]bool)}
}

// WarnOnce logs message under key the first time key is seen and reports
// whether it logged.
func (d *Diagnostics) WarnOnce(key, message string, fields map[string]interface{}) bool {
	d.mu.Lock()
	if d.warned[key] {
		d.mu.Unlock()
		return false
	}
	d.warned[key] = true
	d.mu.Unlock()

	logger.WarnCF("upload", message, fields)
	return true
}

// Warned reports whether a warning for key was emitted.
func (d *Diagnostics) Warned(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.warned[key]
}
