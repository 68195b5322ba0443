package cfwaf

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	cloudflare "github.com/cloudflare/cloudflare-go"
)

// domainPlaceholder is substituted with the zone name at apply time.
const domainPlaceholder = "{domain}"

// LoadRuleTemplates reads the desired-state rule definitions from a local
// JSON file.
func LoadRuleTemplates(path string) ([]RuleTemplate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error reading rules file %s. %s", path, err)
	}

	var tpls []RuleTemplate
	if err := json.Unmarshal(b, &tpls); err != nil {
		return nil, fmt.Errorf("Error unmarshalling rules file %s. %s", path, err)
	}

	return tpls, nil
}

// findTemplate locates a template by exact name match.
func findTemplate(tpls []RuleTemplate, name string) *RuleTemplate {
	for i := range tpls {
		if tpls[i].Name == name {
			return &tpls[i]
		}
	}
	return nil
}

// findRuleByDescription locates an existing rule whose description equals
// the template name.
func findRuleByDescription(rules []Rule, name string) *Rule {
	for i := range rules {
		if rules[i].Description == name {
			return &rules[i]
		}
	}
	return nil
}

// ApplyTemplate deep-copies a template and substitutes every occurrence of
// the {domain} placeholder in its expression with the zone's domain name.
// The copy keeps mutations from leaking across zones.
func ApplyTemplate(t RuleTemplate, domain string) RuleTemplate {
	out := t
	out.Expression = strings.Replace(t.Expression, domainPlaceholder, domain, -1)

	if t.Position != nil {
		p := *t.Position
		out.Position = &p
	}
	if t.ActionParameters != nil {
		out.ActionParameters = append(json.RawMessage(nil), t.ActionParameters...)
	}

	return out
}

// buildNewRule assembles the full creation payload from a substituted
// template.
func buildNewRule(t RuleTemplate) NewRule {
	return NewRule{
		Description:      t.Name,
		Action:           t.Action,
		Expression:       t.Expression,
		Enabled:          t.Enabled,
		Position:         t.Position,
		ActionParameters: t.ActionParameters,
	}
}

// BuildRulePatch assembles the update payload for an existing rule from a
// substituted template. Action parameters are only carried over when the
// existing rule already has the field, so the patch never introduces it
// where the provider schema lacked it. The position field is omitted when
// it matches the rule's current index.
func BuildRulePatch(existing Rule, t RuleTemplate) RulePatch {
	rp := RulePatch{
		Description: t.Name,
		Action:      t.Action,
		Expression:  t.Expression,
		Enabled:     t.Enabled,
	}

	if existing.ActionParameters != nil {
		rp.ActionParameters = t.ActionParameters
	}

	if t.Position != nil {
		if existing.Position == nil || existing.Position.Index != t.Position.Index {
			p := *t.Position
			rp.Position = &p
		}
	}

	return rp
}

// SyncRules drives each requested rule name across every zone: rules absent
// from a zone are created, existing ones are patched. A rule name missing
// from the templates aborts the remaining run; mutations applied for earlier
// rule names stay applied. A single zone's create or update failure is
// logged and the zone loop continues.
func SyncRules(c RulesAPI, zones []Zone, ruleNames []string, tpls []RuleTemplate) error {
	for _, name := range ruleNames {
		tpl := findTemplate(tpls, name)
		if tpl == nil {
			Error.Printf("Rule %s not found in the rules file, aborting", name)
			return fmt.Errorf("rule %s not found in the rules file", name)
		}

		for _, z := range zones {
			if z.DefaultRulesetID == "" {
				continue
			}

			desired := ApplyTemplate(*tpl, z.Name)
			existing := findRuleByDescription(z.WAFRules, name)

			if existing == nil {
				if err := c.CreateRule(z.ID, z.DefaultRulesetID, buildNewRule(desired)); err != nil {
					Error.Printf("Could not create rule %s on zone %s: %s", name, z.Name, err)
					continue
				}
				Info.Printf("Created rule %s on zone %s", name, z.Name)
				continue
			}

			rp := BuildRulePatch(*existing, desired)
			if err := c.UpdateRule(z.ID, z.DefaultRulesetID, existing.ID, rp); err != nil {
				Error.Printf("Could not update rule %s on zone %s: %s", name, z.Name, err)
				continue
			}
			Info.Printf("Updated rule %s on zone %s", name, z.Name)
		}
	}

	return nil
}

// SetZoneWAFRule loads the rule templates, fetches the target zones and
// synchronizes each requested rule name to them. A missing or unreadable
// rules file aborts before any API call.
func SetZoneWAFRule(api *cloudflare.API, c *Client, ruleNames, sites []string, rulesFile string) error {
	tpls, err := LoadRuleTemplates(rulesFile)
	if err != nil {
		Error.Printf("Could not load rules file: %s", err)
		return err
	}

	zones, err := GetZones(api, c, sites)
	if err != nil {
		return err
	}

	return SyncRules(c, zones, ruleNames, tpls)
}
