package version

// Set at build time with -ldflags "-X stats-loader/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)
