// Package envutil reads the few settings the devtool CLI takes from the
// environment before viper-backed config exists.
package envutil

import "strings"

const DefaultSessionDir = "./whatsapp-session"

// First returns the first non-blank value among keys, trimmed, or def.
func First(getenv func(string) string, def string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
	}
	return def
}

func String(getenv func(string) string, key string, def string) string {
	return First(getenv, def, key)
}

// SessionDir is the browser profile the server and devtool share.
func SessionDir(getenv func(string) string) string {
	return First(getenv, DefaultSessionDir, "SESSION_DIR")
}

// ExecutableOverride is the browser binary pinned through the environment,
// PUPPETEER_EXECUTABLE_PATH first.
func ExecutableOverride(getenv func(string) string) string {
	return First(getenv, "", "PUPPETEER_EXECUTABLE_PATH", "CHROME_BIN")
}

// Bool accepts 1/0, true/false, yes/no, y/n and on/off; anything else is def.
func Bool(getenv func(string) string, key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
