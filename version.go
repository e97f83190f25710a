package traitwatch

// Version is the library version. Overridden at build time via
// -ldflags "-X github.com/traitwatch/traitwatch.Version=...".
var Version = "dev"
