package config

import (
	"fmt"
	"os"
	"strings"
)

// substituteEnvVars walks a decoded YAML value (the generic tree produced by
// yaml.v3's `interface{}` unmarshal: map[string]interface{}, []interface{},
// and scalars) and replaces any string of the exact form "${VAR_NAME}" with
// the value of that environment variable.
//
// An unresolved variable whose name ends in "_API_KEY" or "_TOKEN" becomes
// the placeholder string "VAR_NAME_NOT_SET" rather than failing outright,
// since those are frequently optional per-provider credentials; any other
// unresolved variable is a hard configuration error.
func substituteEnvVars(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") && len(v) > 3 {
			name := v[2 : len(v)-1]
			if env, ok := os.LookupEnv(name); ok {
				return env, nil
			}
			if strings.HasSuffix(name, "_API_KEY") || strings.HasSuffix(name, "_TOKEN") {
				return name + "_NOT_SET", nil
			}
			return nil, fmt.Errorf("config: environment variable %q is not set", name)
		}
		return v, nil

	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			resolved, err := substituteEnvVars(item)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil

	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			resolved, err := substituteEnvVars(item)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil

	default:
		return v, nil
	}
}
