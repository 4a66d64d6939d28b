package philoxrng

// Version information for the Philox RNG state tracking runtime.
const (
	// Version is the current version of the tracking runtime.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info provides runtime information about the tracking library.
type Info struct {
	// Version is the runtime version string.
	Version string

	// Generator is the counter-based PRNG family the bookkeeping targets.
	Generator string
}

// GetInfo returns information about the tracking runtime.
//
// Example:
//
//	info := philoxrng.GetInfo()
//	fmt.Printf("philoxrng %s (%s)\n", info.Version, info.Generator)
func GetInfo() Info {
	return Info{
		Version:   Version,
		Generator: "Philox4x32-10 (counter-based)",
	}
}
