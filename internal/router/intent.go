// Package router maps free-text inbound messages onto the fixed set of sales
// intents and the persona handlers bound to them.
package router

import "fmt"

// Intent is one of the closed set of sales intents.
type Intent string

const (
	Qualification Intent = "qualification"
	Collection    Intent = "collection"
	Objection     Intent = "objection"
	Communication Intent = "communication"
	Closing       Intent = "closing"
)

// Intents lists every known intent in declaration order.
var Intents = []Intent{Qualification, Collection, Objection, Communication, Closing}

// Valid reports whether i belongs to the closed intent set.
func (i Intent) Valid() bool {
	for _, known := range Intents {
		if i == known {
			return true
		}
	}
	return false
}

func (i Intent) String() string {
	return string(i)
}

// UnmarshalText rejects intents outside the closed set.
func (i *Intent) UnmarshalText(text []byte) error {
	v := Intent(text)
	if !v.Valid() {
		return fmt.Errorf("unknown intent %q", text)
	}
	*i = v
	return nil
}
