package dispatch

import "github.com/pmacedo/dispatchproxy/internal/policy"

// ParseAlgoType maps the change_algorithm endpoint's algo_type query value
// to a PolicyKind. Returns ErrBadControlQuery for any unrecognized value.
func ParseAlgoType(value string) (policy.Kind, error) {
	switch value {
	case "round_robin":
		return policy.RoundRobin, nil
	case "least_connections":
		return policy.LeastConnections, nil
	default:
		return "", ErrBadControlQuery
	}
}
