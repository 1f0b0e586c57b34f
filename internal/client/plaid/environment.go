package plaid

import (
	"fmt"
	"strings"
)

type Environment string

const (
	Sandbox     Environment = "sandbox"
	Development Environment = "development"
	Production  Environment = "production"
)

func ParseEnvironment(s string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case Sandbox:
		return Sandbox, nil
	case Development:
		return Development, nil
	case Production:
		return Production, nil
	default:
		return "", fmt.Errorf("invalid plaid environment: %q (valid: sandbox, development, production)", s)
	}
}

func (e Environment) BaseURL() string {
	switch e {
	case Production:
		return "https://production.plaid.com"
	case Development:
		return "https://development.plaid.com"
	default:
		return "https://sandbox.plaid.com"
	}
}

func (e Environment) String() string { return string(e) }

// UnmarshalText lets env parsing reject unknown environments at startup.
func (e *Environment) UnmarshalText(text []byte) error {
	parsed, err := ParseEnvironment(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
