package runner

import (
	"fmt"
	"strings"
)

// ParseStrategy accepts the full or short name, in any case.
func ParseStrategy(name string) (Strategy, error) {
	name = strings.TrimSpace(name)
	for _, s := range strategies {
		if strings.EqualFold(name, s.String()) || strings.EqualFold(name, s.Short()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want one of BnB, Approx, LS1, LS2)", ErrUnknownStrategy, name)
}
