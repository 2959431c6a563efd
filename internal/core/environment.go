package core

import "strings"

// Environment names the deployment the service runs in. It decides log format
// and level.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Testing     Environment = "testing"
	Production  Environment = "production"
)

var environmentAliases = map[string]Environment{
	"development": Development,
	"dev":         Development,
	"local":       Development,
	"staging":     Staging,
	"stage":       Staging,
	"testing":     Testing,
	"test":        Testing,
	"production":  Production,
	"prod":        Production,
}

func (e Environment) String() string { return string(e) }

func (e Environment) IsProduction() bool { return e == Production }

// Decode lets envconfig bind ENVIRONMENT straight into an Environment.
func (e *Environment) Decode(value string) error {
	*e = ParseEnvironment(value)
	return nil
}

// ParseEnvironment accepts the usual short names. Anything unknown is
// Development so a bare checkout still starts.
func ParseEnvironment(v string) Environment {
	if env, ok := environmentAliases[strings.ToLower(strings.TrimSpace(v))]; ok {
		return env
	}
	return Development
}
