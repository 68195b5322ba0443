package cfwaf

import (
	"context"
	"fmt"
	"math"
	"os"

	cloudflare "github.com/cloudflare/cloudflare-go"
)

// defaultRulesetName is the name of the zone ruleset that holds custom rules.
const defaultRulesetName = "default"

// GetZones pulls every zone visible to the token, optionally filtered to an
// exact set of site names, and resolves each zone's default ruleset and its
// rules. Rule positions are assigned 1-based from response order since the
// API does not return them. Zones without a default ruleset are returned
// with no ruleset ID and no rules.
func GetZones(api *cloudflare.API, c *Client, sites []string) ([]Zone, error) {
	cfz, err := api.ListZones(context.Background())
	if err != nil {
		return nil, fmt.Errorf("Error while listing zones: %s", err)
	}

	matched := filterZones(cfz, sites)

	zones := make([]Zone, 0, len(matched))
	for i, cz := range matched {
		pct := int(math.Round(float64(i+1) / float64(len(matched)) * 100))
		WriteProgress(os.Stdout, "Fetching zones", "Processing", cz.Name, pct)

		z := Zone{ID: cz.ID, Name: cz.Name}

		rulesets, err := c.ListRulesets(z.ID)
		if err != nil {
			return nil, err
		}

		for _, rs := range rulesets {
			if rs.Name == defaultRulesetName {
				z.DefaultRulesetID = rs.ID
				break
			}
		}

		if z.DefaultRulesetID != "" {
			rs, err := c.GetRuleset(z.ID, z.DefaultRulesetID)
			if err != nil {
				return nil, err
			}
			z.WAFRules = injectPositions(rs.Rules)
		}

		zones = append(zones, z)
	}

	return zones, nil
}

// filterZones keeps only zones whose name is in the sites list, preserving
// provider order. An empty sites list keeps everything.
func filterZones(cfz []cloudflare.Zone, sites []string) []cloudflare.Zone {
	if len(sites) == 0 {
		return cfz
	}

	wanted := make(map[string]bool, len(sites))
	for _, s := range sites {
		wanted[s] = true
	}

	var matched []cloudflare.Zone
	for _, z := range cfz {
		if wanted[z.Name] {
			matched = append(matched, z)
		}
	}
	return matched
}

// injectPositions assigns each rule a 1-based position from its place in the
// response array. Response order is treated as current provider-side order.
func injectPositions(rules []Rule) []Rule {
	for i := range rules {
		rules[i].Position = &RulePosition{Index: i + 1}
	}
	return rules
}

// ListZoneRules reports the rules of each fetched zone, grouped by enabled
// status.
func ListZoneRules(zones []Zone) {
	for _, z := range zones {
		if z.DefaultRulesetID == "" {
			Warning.Printf("Zone %s has no default ruleset, skipping", z.Name)
			continue
		}

		var enabled []Rule
		var disabled []Rule
		for _, r := range z.WAFRules {
			if r.Enabled {
				enabled = append(enabled, r)
			} else {
				disabled = append(disabled, r)
			}
		}

		Info.Printf("Zone %s (%s) ruleset %s: %d rules", z.Name, z.ID, z.DefaultRulesetID, len(z.WAFRules))

		Info.Println("- Enabled Rules")
		for _, r := range enabled {
			Info.Printf("- Rule: %s\tPosition: %d\tAction: %s\tExpression: %s\n",
				r.Description, r.Position.Index, r.Action, r.Expression)
		}

		Info.Println("- Disabled Rules")
		for _, r := range disabled {
			Info.Printf("- Rule: %s\tPosition: %d\tAction: %s\tExpression: %s\n",
				r.Description, r.Position.Index, r.Action, r.Expression)
		}
	}
}
