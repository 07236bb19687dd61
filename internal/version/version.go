package version

// Version is the build version, overridden at build time via -ldflags.
var Version = "dev"
