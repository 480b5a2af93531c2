// Package portutil allocates listen ports for commands that reference
// $PORT-style placeholders in their arguments or environment.
package portutil

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern matches $PORT, ${PORT} and prefixed or suffixed
// variants such as $API_PORT and ${PORT_2}.
var placeholderPattern = regexp.MustCompile(`\$\{?([A-Z_]*PORT[A-Z0-9_]*)\}?`)

// AllocatePort reserves an available TCP port using OS assignment and
// releases it immediately. The caller hands the number to a process that
// binds it shortly after; the window in between is unavoidable.
func AllocatePort() (int, error) {
	listener, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate port: %w", err)
	}
	defer func() {
		_ = listener.Close()
	}()
	return listener.Addr().(*net.TCPAddr).Port, nil
}

// FindPlaceholders returns the unique placeholder names referenced by the
// given strings, in first-appearance order, without the $ or ${} decoration.
func FindPlaceholders(values ...string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, value := range values {
		for _, match := range placeholderPattern.FindAllStringSubmatch(value, -1) {
			name := match[1]
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Substitute replaces every $NAME and ${NAME} reference in s with the
// allocated port number. References to names without an allocation are left
// untouched. Matching is anchored on whole placeholder names, so $PORT never
// clobbers the prefix of $PORT_2.
func Substitute(s string, ports map[string]int) string {
	if len(ports) == 0 || !strings.Contains(s, "$") {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := strings.TrimPrefix(ref, "$")
		name = strings.TrimPrefix(name, "{")
		name = strings.TrimSuffix(name, "}")
		if port, ok := ports[name]; ok {
			return strconv.Itoa(port)
		}
		return ref
	})
}
