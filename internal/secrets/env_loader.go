package secrets

import "os"

// EnvLoader returns a Loader that reads the given environment variables.
// Unset variables are omitted from the result.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}

// WithFallback fills keys the loader did not return from fallback, which
// typically carries values read from the config file at startup.
func WithFallback(loader Loader, fallback map[string]string) Loader {
	return func() (map[string]string, error) {
		vals, err := loader()
		if err != nil {
			return nil, err
		}
		for k, v := range fallback {
			if _, ok := vals[k]; !ok && v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
