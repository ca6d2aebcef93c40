// Package version gates strategy implementations against the runtime's
// strategy API version.
package version

import (
	"github.com/Masterminds/semver/v3"
	"github.com/quantrail/quantrail/pkg/errors"
)

// StrategyAPIVersion is the strategy contract version this runtime speaks.
const StrategyAPIVersion = "1.0.0"

// CheckStrategyAPI verifies that a strategy written against the given
// version can run on this runtime. Compatibility follows semver: same major
// version, and the strategy must not require a newer minor than the runtime
// provides.
func CheckStrategyAPI(strategyVersion string) error {
	runtime, err := semver.NewVersion(StrategyAPIVersion)
	if err != nil {
		return errors.Wrap(errors.ErrCodeVersionMismatch, "invalid runtime API version", err)
	}

	declared, err := semver.NewVersion(strategyVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err, "invalid strategy API version %q", strategyVersion)
	}

	if declared.Major() != runtime.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"strategy API major version %d does not match runtime version %d", declared.Major(), runtime.Major())
	}

	if declared.GreaterThan(runtime) {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"strategy requires API version %s, runtime provides %s", strategyVersion, StrategyAPIVersion)
	}

	return nil
}
