package version

// Version is the current version of the rulesim engine.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/quantarc/rulesim/internal/version.Version=1.2.3"
// The default value "main" indicates a development build.
var Version = "v1.3.0"

// GetVersion returns the current version of the engine.
func GetVersion() string {
	return Version
}
