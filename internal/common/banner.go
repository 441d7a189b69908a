package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved target
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("UIProbe", GetVersion())

	logger.Info().
		Str("frontend", config.Target.FrontendURL).
		Str("backend", config.Target.BackendURL).
		Strs("roles", config.Roles).
		Bool("headless", config.Browser.Headless).
		Str("output", config.Output.Dir).
		Msg("Target configured")
}
