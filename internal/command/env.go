package command

import (
	"fmt"
	"os"
	"strings"
)

// mergeEnv merges per-command environment variables over the parent process
// environment and returns the result in the KEY=VALUE form exec.Cmd expects.
// npm-injected variables are filtered out of the parent environment because
// they leak into spawned package-manager commands and trigger warnings.
func mergeEnv(env map[string]string) []string {
	base := make(map[string]string, len(os.Environ())+len(env))

	for _, entry := range os.Environ() {
		if eq := strings.IndexByte(entry, '='); eq >= 0 {
			key := entry[:eq]
			if isNpmEnvVar(key) {
				continue
			}
			base[key] = entry[eq+1:]
		}
	}

	for k, v := range env {
		base[k] = v
	}

	merged := make([]string, 0, len(base))
	for k, v := range base {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}
	return merged
}

// isNpmEnvVar reports whether the key is an npm-managed environment variable.
func isNpmEnvVar(key string) bool {
	npmPrefixes := []string{
		"npm_config_",
		"npm_package_",
		"npm_lifecycle_",
		"npm_execpath",
		"npm_node_execpath",
	}
	for _, prefix := range npmPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
