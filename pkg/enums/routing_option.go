package enums

import (
	"fmt"
	"strings"
)

// RoutingOption controls whether a reassignment rebuilds the new day's route.
type RoutingOption string

const (
	RoutingOptionAuto   RoutingOption = "auto"
	RoutingOptionManual RoutingOption = "manual"
)

func (r RoutingOption) String() string {
	return string(r)
}

func (r RoutingOption) IsValid() bool {
	return r == RoutingOptionAuto || r == RoutingOptionManual
}

// ParseRoutingOption is case-insensitive; an empty value means manual.
func ParseRoutingOption(value string) (RoutingOption, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(RoutingOptionManual):
		return RoutingOptionManual, nil
	case string(RoutingOptionAuto):
		return RoutingOptionAuto, nil
	}
	return "", fmt.Errorf("invalid routing option %q", value)
}
