package bsvideo

import (
	"log/slog"

	"github.com/e7canasta/bsvideo/internal/logging"
)

// SetLogger installs l as the logger every bsvideo component writes
// through. Call it before constructing any Engine; passing nil
// restores slog.Default(). There is no per-Engine override — logging
// policy is process-global, matching the corpus's once-at-startup
// log-level setup.
func SetLogger(l *slog.Logger) { logging.Set(l) }
