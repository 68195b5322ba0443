package cfwaf

import (
	"encoding/json"
	"fmt"

	resty "gopkg.in/resty.v1"
)

// RulesAPI is the surface of the rule mutation endpoints consumed by the
// synchronizer, abstracted so the sync logic can run against a fake without
// live network access.
type RulesAPI interface {
	CreateRule(zoneID, rulesetID string, nr NewRule) error
	UpdateRule(zoneID, rulesetID, ruleID string, rp RulePatch) error
}

// Client calls the Cloudflare ruleset endpoints with an explicit endpoint
// and bearer token rather than ambient process state.
type Client struct {
	APIEndpoint string
	APIToken    string

	rc *resty.Client
}

// NewClient returns a Client for the given API endpoint and bearer token.
func NewClient(apiep, token string) *Client {
	return &Client{
		APIEndpoint: apiep,
		APIToken:    token,
		rc:          resty.New(),
	}
}

// request returns a resty request with the bearer auth headers set.
func (c *Client) request() *resty.Request {
	return c.rc.R().
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+c.APIToken)
}

// unwrap checks the envelope of a Cloudflare response body and returns the
// raw result payload.
func unwrap(body []byte, apiCall string) (json.RawMessage, error) {
	var env apiResponse
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("Error while parsing API response from %s", apiCall)
	}
	if !env.Success {
		if len(env.Errors) > 0 {
			return nil, fmt.Errorf("API call to %s failed: %d %s", apiCall, env.Errors[0].Code, env.Errors[0].Message)
		}
		return nil, fmt.Errorf("API call to %s failed", apiCall)
	}
	return env.Result, nil
}

// VerifyToken checks the bearer token against the token verification
// endpoint before any mutating call is attempted.
func (c *Client) VerifyToken() error {
	apiCall := c.APIEndpoint + "/user/tokens/verify"

	resp, err := c.request().Get(apiCall)
	if err != nil {
		return fmt.Errorf("Error while making API call to %s", apiCall)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("Non 200 response while making API call to %s", apiCall)
	}

	result, err := unwrap(resp.Body(), apiCall)
	if err != nil {
		return err
	}

	var ts TokenStatus
	if err := json.Unmarshal(result, &ts); err != nil {
		return fmt.Errorf("Error while parsing API response from %s", apiCall)
	}
	if ts.Status != "active" {
		return fmt.Errorf("API token is not active, status: %s", ts.Status)
	}

	return nil
}

// ListRulesets pulls the ruleset listing for a zone. The listing does not
// include rule bodies.
func (c *Client) ListRulesets(zoneID string) ([]Ruleset, error) {
	apiCall := fmt.Sprintf("%s/zones/%s/rulesets", c.APIEndpoint, zoneID)

	resp, err := c.request().Get(apiCall)
	if err != nil {
		return nil, fmt.Errorf("Error while making API call to %s", apiCall)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("Non 200 response while making API call to %s", apiCall)
	}

	result, err := unwrap(resp.Body(), apiCall)
	if err != nil {
		return nil, err
	}

	var rs []Ruleset
	if err := json.Unmarshal(result, &rs); err != nil {
		return nil, fmt.Errorf("Error while parsing API response from %s", apiCall)
	}

	return rs, nil
}

// GetRuleset pulls a single ruleset with its rules.
func (c *Client) GetRuleset(zoneID, rulesetID string) (Ruleset, error) {
	rs := Ruleset{}
	apiCall := fmt.Sprintf("%s/zones/%s/rulesets/%s", c.APIEndpoint, zoneID, rulesetID)

	resp, err := c.request().Get(apiCall)
	if err != nil {
		return rs, fmt.Errorf("Error while making API call to %s", apiCall)
	}
	if resp.StatusCode() != 200 {
		return rs, fmt.Errorf("Non 200 response while making API call to %s", apiCall)
	}

	result, err := unwrap(resp.Body(), apiCall)
	if err != nil {
		return rs, err
	}

	if err := json.Unmarshal(result, &rs); err != nil {
		return rs, fmt.Errorf("Error while parsing API response from %s", apiCall)
	}

	return rs, nil
}

// CreateRule adds a new rule to a zone's ruleset.
func (c *Client) CreateRule(zoneID, rulesetID string, nr NewRule) error {
	apiCall := fmt.Sprintf("%s/zones/%s/rulesets/%s/rules", c.APIEndpoint, zoneID, rulesetID)

	resp, err := c.request().
		SetBody(nr).
		Post(apiCall)

	if err != nil {
		return fmt.Errorf("Error while making API call to %s", apiCall)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("Non 200 response while making API call to %s: %s", apiCall, resp.String())
	}

	if _, err := unwrap(resp.Body(), apiCall); err != nil {
		return err
	}

	return nil
}

// UpdateRule patches an existing rule in a zone's ruleset.
func (c *Client) UpdateRule(zoneID, rulesetID, ruleID string, rp RulePatch) error {
	apiCall := fmt.Sprintf("%s/zones/%s/rulesets/%s/rules/%s", c.APIEndpoint, zoneID, rulesetID, ruleID)

	resp, err := c.request().
		SetBody(rp).
		Patch(apiCall)

	if err != nil {
		return fmt.Errorf("Error while making API call to %s", apiCall)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("Non 200 response while making API call to %s: %s", apiCall, resp.String())
	}

	if _, err := unwrap(resp.Body(), apiCall); err != nil {
		return err
	}

	return nil
}
