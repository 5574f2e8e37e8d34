package config

// Linker-injected build metadata variables. Set at compile time via -ldflags,
// for example:
//
//	go build -ldflags "-X umbrella/internal/config.version=1.2.3 \
//	    -X umbrella/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X umbrella/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Default values are used during local development when ldflags are not set.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// BuildInfo is the build metadata exposed by the health endpoint.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

// NewBuildInfo constructs a BuildInfo from the linker-injected variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
