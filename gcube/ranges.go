package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseRange reads "a:b" as the half-open range [a, b). An empty side
// takes the value of def.
func parseRange(s string, def [2]int) ([2]int, error) {
	if s == "" {
		return def, nil
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return def, fmt.Errorf("range %q: want start:stop", s)
	}
	r := def
	for i, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return def, fmt.Errorf("range %q: %v", s, err)
		}
		r[i] = v
	}
	return r, nil
}
