package core

import "os"

// GetEnv retrieves an environment variable, checking both the standard name
// and a GENESIS-prefixed version. Returns the first non-empty value found.
// This allows environment variables to be set with or without the GENESIS_ prefix.
func GetEnv(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return os.Getenv(EnvPrefix + "_" + key)
}
