package command

import (
	"strconv"

	"github.com/procdock/procdock/internal/common/portutil"
)

// resolvePorts allocates a free TCP port for every $PORT-style placeholder
// referenced by the request's arguments or environment values and substitutes
// the numbers in place. Each allocation is also exported as an environment
// variable under the placeholder name so tools can read the port from either
// side. Returns the rewritten args and env plus the allocations by name.
//
// Allocation happens per spawn: a restarted command gets fresh ports, the
// same way a fresh run would.
func resolvePorts(args []string, env map[string]string) ([]string, map[string]string, map[string]int, error) {
	values := make([]string, 0, len(args)+len(env))
	values = append(values, args...)
	for _, v := range env {
		values = append(values, v)
	}

	names := portutil.FindPlaceholders(values...)
	if len(names) == 0 {
		return args, env, nil, nil
	}

	ports := make(map[string]int, len(names))
	for _, name := range names {
		port, err := portutil.AllocatePort()
		if err != nil {
			return nil, nil, nil, err
		}
		ports[name] = port
	}

	resolvedArgs := make([]string, len(args))
	for i, arg := range args {
		resolvedArgs[i] = portutil.Substitute(arg, ports)
	}

	resolvedEnv := make(map[string]string, len(env)+len(ports))
	for k, v := range env {
		resolvedEnv[k] = portutil.Substitute(v, ports)
	}
	for name, port := range ports {
		resolvedEnv[name] = strconv.Itoa(port)
	}

	return resolvedArgs, resolvedEnv, ports, nil
}
