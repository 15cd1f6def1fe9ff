package session

import (
	"os"

	"github.com/matheus3301/sms/internal/config"
)

// DefaultSessionName is used when neither a flag, $SMS_SESSION nor the
// global config names a session.
const DefaultSessionName = "main"

// Resolve picks the active session name. Precedence: flag, $SMS_SESSION,
// config.toml default_session, DefaultSessionName.
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv("SMS_SESSION"); env != "" {
		return env
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultSession != "" {
		return cfg.DefaultSession
	}
	return DefaultSessionName
}
