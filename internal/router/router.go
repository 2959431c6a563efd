package router

import (
	"strings"

	logx "github.com/synapse-ia/salesagent/pkg/logger"
)

// Rule binds an intent to the keywords that select it and the handlers that serve it.
type Rule struct {
	Intent   Intent   `yaml:"intent"`
	Handlers []string `yaml:"handlers"`
	Keywords []string `yaml:"keywords"`
}

// matches reports whether any keyword is a substring of the lowered text.
func (r Rule) matches(lowered string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Decision is the outcome of routing one message.
type Decision struct {
	Intent   Intent   `json:"intent"`
	Handlers []string `json:"handlers"`
	Matched  bool     `json:"matched"`
}

// Router classifies text by ordered keyword rules. It holds no mutable state and
// is safe for concurrent use.
type Router struct {
	rules    []Rule
	fallback Intent
	handlers map[Intent][]string
}

// New builds a Router from a validated Table.
func New(table Table) (*Router, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	r := &Router{
		rules:    make([]Rule, 0, len(table.Rules)),
		fallback: table.Fallback,
		handlers: make(map[Intent][]string, len(table.Rules)),
	}
	for _, rule := range table.Rules {
		lowered := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			lowered = append(lowered, strings.ToLower(kw))
		}
		handlers := append([]string(nil), rule.Handlers...)
		r.rules = append(r.rules, Rule{Intent: rule.Intent, Handlers: handlers, Keywords: lowered})
		r.handlers[rule.Intent] = handlers
	}
	return r, nil
}

// Default returns a Router over the embedded keyword table.
func Default() *Router {
	r, err := New(DefaultTable())
	if err != nil {
		panic(err)
	}
	return r
}

// Classify returns the intent of text. It never fails: unmatched text yields
// the fallback intent.
func (r *Router) Classify(text string) Intent {
	intent, _ := r.classify(text)
	return intent
}

func (r *Router) classify(text string) (Intent, bool) {
	lowered := strings.ToLower(text)
	for _, rule := range r.rules {
		if rule.matches(lowered) {
			return rule.Intent, true
		}
	}
	return r.fallback, false
}

// Route classifies text and returns the ordered handlers for the chosen intent.
func (r *Router) Route(text string) Decision {
	intent, matched := r.classify(text)
	d := Decision{
		Intent:   intent,
		Handlers: append([]string(nil), r.handlers[intent]...),
		Matched:  matched,
	}
	logx.Debug().
		Str("intent", intent.String()).
		Strs("handlers", d.Handlers).
		Bool("matched", matched).
		Msg("Message routed")
	return d
}

