package config

import "os"

// OSEnviron adapts os.LookupEnv to the Environ type Load expects.
func OSEnviron(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnviron adapts a plain map to Environ, for tests.
func MapEnviron(m map[string]string) Environ {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}
