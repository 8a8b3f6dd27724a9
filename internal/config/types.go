package config

import "fmt"

// ErrorBehavior controls how the engine reacts to one of the policy-driven
// error conditions.
type ErrorBehavior string

const (
	// BehaviorDefault applies the tolerant defaults: missing test IDs fall
	// back to the shared default session, the other conditions defer to
	// strict mode.
	BehaviorDefault ErrorBehavior = ""

	// BehaviorThrow raises the condition as an error to the caller.
	BehaviorThrow ErrorBehavior = "throw"

	// BehaviorWarn logs a diagnostic and then behaves like the default.
	BehaviorWarn ErrorBehavior = "warn"

	// BehaviorIgnore behaves like the default with no diagnostic.
	BehaviorIgnore ErrorBehavior = "ignore"
)

func (b ErrorBehavior) valid() bool {
	switch b {
	case BehaviorDefault, BehaviorThrow, BehaviorWarn, BehaviorIgnore:
		return true
	default:
		return false
	}
}

// ErrorBehaviors configures each policy-driven condition independently.
type ErrorBehaviors struct {
	OnNoMockFound       ErrorBehavior `yaml:"onNoMockFound,omitempty"`
	OnSequenceExhausted ErrorBehavior `yaml:"onSequenceExhausted,omitempty"`
	OnMissingTestID     ErrorBehavior `yaml:"onMissingTestId,omitempty"`
}

// Config is the engine configuration.
type Config struct {
	// StrictMode makes unmatched requests an explicit "not implemented"
	// signal instead of delegating to real-network passthrough.
	StrictMode bool `yaml:"strictMode,omitempty"`

	// ErrorBehaviors overrides the tolerant defaults per condition.
	ErrorBehaviors ErrorBehaviors `yaml:"errorBehaviors,omitempty"`

	// ScenarioPath is the file or directory scenario definitions load
	// from at startup.
	ScenarioPath string `yaml:"scenarioPath,omitempty"`

	// WatchScenarios enables hot-reloading of ScenarioPath.
	WatchScenarios bool `yaml:"watchScenarios,omitempty"`

	// LogLevel is the minimum diagnostic level: debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty"`
}

// Validate checks that every configured behavior is a known value.
func (c *Config) Validate() error {
	checks := []struct {
		name  string
		value ErrorBehavior
	}{
		{"onNoMockFound", c.ErrorBehaviors.OnNoMockFound},
		{"onSequenceExhausted", c.ErrorBehaviors.OnSequenceExhausted},
		{"onMissingTestId", c.ErrorBehaviors.OnMissingTestID},
	}
	for _, check := range checks {
		if !check.value.valid() {
			return fmt.Errorf("errorBehaviors.%s: unknown behavior %q", check.name, check.value)
		}
	}
	return nil
}
