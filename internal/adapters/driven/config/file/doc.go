// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.musictruth.
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - CalibrationStore: YAML threshold and genre profile overrides
//   - PromptStore: user-editable agent prompts
package file
