package hooks

// Config is the top-level configuration loaded from .linkwizard.hooks.yml.
type Config struct {
	Version int         `yaml:"version"`
	Hooks   HooksConfig `yaml:"hooks"`
}

// HooksConfig lists the wizard events a hook can be attached to.
type HooksConfig struct {
	// OnLink runs after an account is linked.
	OnLink *HookConfig `yaml:"on_link"`
	// OnStartAutomation runs when the user enables automation.
	OnStartAutomation *HookConfig `yaml:"on_start_automation"`
}

// HookConfig defines a single hook's configuration.
type HookConfig struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout"` // seconds, default 30
}

// DefaultTimeout is the default timeout for hook execution in seconds.
const DefaultTimeout = 30
