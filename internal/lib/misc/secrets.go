package misc

import (
	"os"
)

// GetSecret fetches sensitive configuration like node tokens. Only the
// process environment backs it today, but callers shouldn't assume that.
func GetSecret(key string) string {
	return os.Getenv(key)
}
