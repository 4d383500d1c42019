package version

import (
	"runtime"
	"time"
)

// Name is reported by /healthz and the startup banner.
const Name = "registrar"

var (
	Version   = "dev"                           // set via -ldflags, ex: v1.0.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2026-10-18T09:12:00Z
	GoVersion = runtime.Version()
)
