// Package extractors provides the feature extractor registry and the
// reference extractors that turn audio into forensic metrics.
//
// Each extractor is independent: it reads the unit's buffer, never mutates
// it, and reports failure as an invalid domain.FeatureResult.
package extractors
