package version

// Version is the release of the argo-signal binary, set at build time with
// -ldflags "-X github.com/rxtech-lab/argo-signal/internal/version.Version=v0.2.0".
var Version = "dev"

// GetVersion returns the current version of the binary.
func GetVersion() string {
	return Version
}
