package version

// Version is overridden at build time via -ldflags "-X ytcollector-go/internal/version.Version=...".
var Version = "dev"
