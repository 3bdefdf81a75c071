package config

import (
	"fmt"
	"sort"
	"strings"
)

// Required collects env names whose values are empty.
type Required map[string]string

func (r Required) Check() error {
	var missing []string
	for name, value := range r {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing required env: %s", strings.Join(missing, ", "))
}
