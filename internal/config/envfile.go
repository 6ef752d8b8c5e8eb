package config

import (
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFileCandidates applies KEY=VALUE pairs from well-known env files to
// the process environment. Variables already set in the environment win over
// file entries, and later candidates never override earlier ones.
func LoadEnvFileCandidates() {
	for _, path := range envFileCandidates() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for key, val := range parseEnvFile(string(data)) {
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}

func envFileCandidates() []string {
	var paths []string
	if explicit := strings.TrimSpace(os.Getenv("TRACKSYNC_ENV_FILE")); explicit != "" {
		paths = append(paths, explicit)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "tracksync", "env"),
			filepath.Join(home, ConfigDir, "env"),
		)
	}

	seen := map[string]struct{}{}
	unique := paths[:0]
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	return unique
}

// parseEnvFile understands the usual dotenv shape: blank lines and #-comments
// are skipped, an optional "export " prefix is stripped, and single or double
// quotes around the value are removed.
func parseEnvFile(content string) map[string]string {
	vars := map[string]string{}
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, val, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		vars[key] = unquoteEnvValue(strings.TrimSpace(val))
	}
	return vars
}

func unquoteEnvValue(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if first == last && (first == '"' || first == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}
