package criteria

import (
	"github.com/viant/fluxchart/service/dao"
)

// Match returns true when no parameter restricts name or when value equals
// one of the parameter values.
func Match(name, value string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil || parameter.Name != name {
			continue
		}
		switch actual := parameter.Value.(type) {
		case string:
			if value != actual {
				return false
			}
		case []string:
			found := false
			for _, candidate := range actual {
				if candidate == value {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
