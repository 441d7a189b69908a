// Key references let configuration files point at secrets instead of
// embedding them. A value of "{TUTOR_PASSWORD}" is replaced with the
// TUTOR_PASSWORD environment variable once the files are loaded.
//
// Missing keys are logged as warnings and the reference is left unchanged,
// so validation reports the unresolved value rather than an empty one.
package common

import (
	"os"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
)

// keyRefPattern matches {key-name} references in strings
// Allows alphanumeric characters, hyphens, and underscores
var keyRefPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]+)\}`)

// ReplaceKeyReferences replaces all {key-name} references in the input string
// with values from kvMap. Unknown keys are left as they are.
func ReplaceKeyReferences(input string, kvMap map[string]string, logger arbor.ILogger) string {
	if input == "" {
		return input
	}

	return keyRefPattern.ReplaceAllStringFunc(input, func(match string) string {
		keyName := match[1 : len(match)-1]
		if value, exists := kvMap[keyName]; exists {
			return value
		}

		logger.Warn().
			Str("reference", match).
			Str("key", keyName).
			Msg("Unresolved key reference")
		return match
	})
}

// ResolveKeyReferences rewrites target URLs and credentials in place
func ResolveKeyReferences(config *Config, kvMap map[string]string, logger arbor.ILogger) {
	config.Target.FrontendURL = ReplaceKeyReferences(config.Target.FrontendURL, kvMap, logger)
	config.Target.BackendURL = ReplaceKeyReferences(config.Target.BackendURL, kvMap, logger)

	for role, cred := range config.Credentials {
		resolved := Credential{
			Email:    ReplaceKeyReferences(cred.Email, kvMap, logger),
			Password: ReplaceKeyReferences(cred.Password, kvMap, logger),
		}
		if resolved != cred {
			logger.Debug().Str("role", role).Msg("Resolved credential references")
		}
		config.Credentials[role] = resolved
	}
}

// EnvironmentKeys returns the process environment as a key map
func EnvironmentKeys() map[string]string {
	env := os.Environ()
	keys := make(map[string]string, len(env))
	for _, kv := range env {
		if name, value, ok := strings.Cut(kv, "="); ok {
			keys[name] = value
		}
	}
	return keys
}
