package secrets

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/joho/godotenv"
)

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are silently omitted from the result map.
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

// FileLoader returns a Loader that parses a KEY=VALUE file (for example a
// mounted secret). A missing file yields no values.
func FileLoader(path string) Loader {
	return func() (map[string]string, error) {
		vals, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return map[string]string{}, nil
			}
			return nil, fmt.Errorf("read secret file %s: %w", path, err)
		}
		return vals, nil
	}
}

// StaticLoader returns a Loader that always yields vals.
func StaticLoader(vals map[string]string) Loader {
	return func() (map[string]string, error) {
		return maps.Clone(vals), nil
	}
}

// Chain merges loaders in order; later loaders override earlier ones for
// keys they provide with a non-empty value.
func Chain(loaders ...Loader) Loader {
	return func() (map[string]string, error) {
		out := make(map[string]string)
		for _, l := range loaders {
			vals, err := l()
			if err != nil {
				return nil, err
			}
			for k, v := range vals {
				if v != "" {
					out[k] = v
				}
			}
		}
		return out, nil
	}
}
