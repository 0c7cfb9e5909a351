package instance

import (
	"os"

	"github.com/angelmondragon/packfinderz-pos/pkg/env"
)

// GetID identifies this API process in logs: POS_INSTANCE_ID, then the
// platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("POS_INSTANCE_ID", ""); id != "" {
		return id
	}
	if id := env.Get("DYNO", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
