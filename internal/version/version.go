package version

// Version is set at build time with -ldflags "-X swissknife/internal/version.Version=...".
var Version = "dev"
