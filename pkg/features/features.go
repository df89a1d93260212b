package features

import (
	"gcsmedia/backend/pkg/config"
)

// SignedURLs enables the signed-URL endpoint for GCS-backed media.
const SignedURLs = "SIGNED_URLS"

// IsEnabled reports whether a feature toggle is on. Names are matched
// case-sensitively against the FEATURE_ suffix of the environment variable.
// Undefined toggles are disabled.
func IsEnabled(featureName string) bool {
	enabled, _ := GetFeatureToggleState(featureName)
	return enabled
}

// GetFeatureToggleState returns the toggle state and whether it was defined at all.
func GetFeatureToggleState(featureName string) (enabled bool, exists bool) {
	if config.Cfg.FeatureToggles == nil {
		return false, false
	}
	enabled, exists = config.Cfg.FeatureToggles[featureName]
	return enabled, exists
}
