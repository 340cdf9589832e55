// Package config loads and validates ng-dev configuration.
//
// It handles:
//   - Reading <repo>/.ng-dev/config.{yaml,yml,json} with NG_DEV_* environment overrides
//   - Per-domain sections (github, caretaker, commitMessage, format, pullRequest, release)
//   - Aggregated validation of the sections a command requires
package config
