package instance

import "os"

// ID names the running process in logs. STOREFRONT_INSTANCE_ID wins, then the
// platform's dyno or host name, then fallback.
func ID(fallback string) string {
	for _, key := range []string{"STOREFRONT_INSTANCE_ID", "DYNO", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return fallback
}
