package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility checks if the engine version satisfies the
// minimum version a simulation config pins via min_engine_version.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The engine's minor version must be >= the required minor version
//   - Patch versions are ignored
//
// Examples:
//   - Engine 1.2.0, config requires 1.2.0 -> OK (exact match)
//   - Engine 1.3.1, config requires 1.2.0 -> OK (newer minor)
//   - Engine 1.1.0, config requires 1.2.0 -> ERROR (engine too old)
//   - Engine 2.0.0, config requires 1.2.0 -> ERROR (major differs)
//   - Engine main, config requires 1.2.0 -> OK (dev build, skip check)
func CheckVersionCompatibility(engineVersion, requiredVersion string) error {
	// Strip 'v' prefix if present for consistency
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	requiredVersion = strings.TrimPrefix(requiredVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" || requiredVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	requiredSemver, err := semver.NewVersion(requiredVersion)
	if err != nil {
		return fmt.Errorf("invalid required version '%s': %w", requiredVersion, err)
	}

	// Check major version match
	if engineSemver.Major() != requiredSemver.Major() {
		return fmt.Errorf("major version mismatch: engine is %d.x.x but config requires %d.x.x",
			engineSemver.Major(), requiredSemver.Major())
	}

	// Engine must be at least as new as the required minor version
	if engineSemver.Minor() < requiredSemver.Minor() {
		return fmt.Errorf("engine too old: engine is %d.%d.x but config requires %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			requiredSemver.Major(), requiredSemver.Minor())
	}

	return nil
}
