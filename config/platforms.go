package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// PlatformConfig holds the credentials for one external commerce platform.
// A platform is usable only when all three fields are present; anything less
// means the platform is disabled, not broken.
type PlatformConfig struct {
	Name           string `validate:"required"`
	URL            string `validate:"required,url"`
	ConsumerKey    string `validate:"required"`
	ConsumerSecret string `validate:"required"`
}

var platformValidate = validator.New()

// Platforms returns the platform names enabled via SYNC_PLATFORMS
// (comma-separated). Names are lowercased; order is preserved.
func Platforms() []string {
	raw := strings.TrimSpace(os.Getenv("SYNC_PLATFORMS"))
	if raw == "" {
		return nil
	}
	var names []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// GetPlatformConfig resolves credentials for one platform from
// {NAME}_API_URL, {NAME}_CONSUMER_KEY and {NAME}_CONSUMER_SECRET.
// Returns nil when any field is missing or malformed. Callers must treat nil
// as "platform disabled", never as an error.
func GetPlatformConfig(platform string) *PlatformConfig {
	name := strings.ToLower(strings.TrimSpace(platform))
	if name == "" {
		return nil
	}
	prefix := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))

	cfg := &PlatformConfig{
		Name:           name,
		URL:            strings.TrimRight(strings.TrimSpace(os.Getenv(prefix+"_API_URL")), "/"),
		ConsumerKey:    strings.TrimSpace(os.Getenv(prefix + "_CONSUMER_KEY")),
		ConsumerSecret: strings.TrimSpace(os.Getenv(prefix + "_CONSUMER_SECRET")),
	}
	if err := platformValidate.Struct(cfg); err != nil {
		return nil
	}
	return cfg
}
