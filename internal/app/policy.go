package app

import (
	"fmt"
	"strings"

	"trivia-client/internal/domain"
)

// Policy selects how a chosen option becomes a submission. It is fixed per deployment.
type Policy string

const (
	// PolicyImmediate submits as soon as an option is selected.
	PolicyImmediate Policy = "immediate"
	// PolicyConfirm stages the selection until an explicit confirm or the countdown expires.
	PolicyConfirm Policy = "confirm"
)

// ParsePolicy maps a config value onto a Policy. Blank means immediate.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyImmediate:
		return PolicyImmediate, nil
	case PolicyConfirm:
		return PolicyConfirm, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownPolicy, s)
	}
}
