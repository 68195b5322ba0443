package cfwaf

import "encoding/json"

// Zone is a managed domain within the Cloudflare account, together with the
// WAF rule state pulled from its default ruleset. It insulates the rest of
// the code from SDK types.
type Zone struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	DefaultRulesetID string `json:"default_ruleset_id,omitempty"`
	WAFRules         []Rule `json:"waf_rules,omitempty"`
}

// Ruleset from the Cloudflare API. The rules field is only populated on the
// single-ruleset detail endpoint, not on the listing.
type Ruleset struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phase string `json:"phase,omitempty"`
	Kind  string `json:"kind,omitempty"`
	Rules []Rule `json:"rules,omitempty"`
}

// Rule is a single WAF match-and-action entry. Description doubles as the
// human-facing rule name and is the matching key during synchronization.
// Position is never returned by the API; it is injected locally from
// response order. ActionParameters is action-specific and kept opaque.
type Rule struct {
	ID               string          `json:"id,omitempty"`
	Description      string          `json:"description"`
	Action           string          `json:"action"`
	Expression       string          `json:"expression"`
	Enabled          bool            `json:"enabled"`
	Position         *RulePosition   `json:"position,omitempty"`
	ActionParameters json.RawMessage `json:"action_parameters,omitempty"`
	Ref              string          `json:"ref,omitempty"`
	Version          string          `json:"version,omitempty"`
	LastUpdated      string          `json:"last_updated,omitempty"`
}

// RulePosition is the rule's 1-based order within its ruleset.
type RulePosition struct {
	Index int `json:"index"`
}

// RuleTemplate is a locally defined desired-state rule, keyed by Name. The
// expression holds a {domain} placeholder substituted per zone at apply time.
type RuleTemplate struct {
	Name             string          `json:"name"`
	Action           string          `json:"action"`
	Expression       string          `json:"expression"`
	Enabled          bool            `json:"enabled"`
	Position         *RulePosition   `json:"position,omitempty"`
	ActionParameters json.RawMessage `json:"action_parameters,omitempty"`
}

// NewRule is the outgoing payload for rule creation.
type NewRule struct {
	Description      string          `json:"description"`
	Action           string          `json:"action"`
	Expression       string          `json:"expression"`
	Enabled          bool            `json:"enabled"`
	Position         *RulePosition   `json:"position,omitempty"`
	ActionParameters json.RawMessage `json:"action_parameters,omitempty"`
}

// RulePatch is the outgoing payload for rule updates. Position must be left
// unset when the rule already sits at the desired index, the API rejects a
// patch that claims to move a rule to its current position. ActionParameters
// must be left unset when the existing rule does not carry the field.
type RulePatch struct {
	Description      string          `json:"description"`
	Action           string          `json:"action"`
	Expression       string          `json:"expression"`
	Enabled          bool            `json:"enabled"`
	Position         *RulePosition   `json:"position,omitempty"`
	ActionParameters json.RawMessage `json:"action_parameters,omitempty"`
}

// apiResponse is the standard Cloudflare v4 response envelope.
type apiResponse struct {
	Success  bool            `json:"success"`
	Errors   []apiError      `json:"errors"`
	Messages []string        `json:"messages,omitempty"`
	Result   json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TokenStatus is the result body of the token verification endpoint.
type TokenStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}
