package cfwaf

import (
	"fmt"
	"testing"

	cloudflare "github.com/cloudflare/cloudflare-go"
	"github.com/stretchr/testify/assert"
)

const testAPIToken = "test-token"

func newTestClients(t *testing.T, apiep string) (*cloudflare.API, *Client) {
	api, err := cloudflare.NewWithAPIToken(testAPIToken)
	if err != nil {
		t.Fatalf("Error creating Cloudflare client. %s", err)
	}
	api.BaseURL = apiep

	return api, NewClient(apiep, testAPIToken)
}

func TestGetZones(t *testing.T) {
	tsvr := APIHarness{}
	p, err := tsvr.Start()
	if err != nil {
		t.Fatalf("Error starting API test server. %s", err)
	}

	apiep := fmt.Sprintf("http://localhost:%d", p)
	defer tsvr.Stop()

	api, c := newTestClients(t, apiep)

	zones, err := GetZones(api, c, nil)
	if err != nil {
		t.Fatalf("Unexpected error '%s'", err)
	}

	if !assert.Equal(t, 3, len(zones), "Number of zones does not match.") {
		t.FailNow()
	}

	assert.Equal(t, "example.com", zones[0].Name, "First zone name does not match.")
	assert.Equal(t, "zone-example-com-default", zones[0].DefaultRulesetID, "Default ruleset ID does not match.")
	assert.Equal(t, 3, len(zones[0].WAFRules), "Number of rules does not match.")

	assert.Equal(t, "example.org", zones[1].Name, "Second zone name does not match.")
	assert.Equal(t, "zone-example-org-default", zones[1].DefaultRulesetID, "Default ruleset ID does not match.")

	// zones without a default ruleset keep no ruleset ID and no rules
	assert.Equal(t, "nodefault.dev", zones[2].Name, "Third zone name does not match.")
	assert.Equal(t, "", zones[2].DefaultRulesetID, "Expected no default ruleset ID.")
	assert.Equal(t, 0, len(zones[2].WAFRules), "Expected no rules.")
}

func TestGetZonesRulePositions(t *testing.T) {
	tsvr := APIHarness{}
	p, err := tsvr.Start()
	if err != nil {
		t.Fatalf("Error starting API test server. %s", err)
	}

	apiep := fmt.Sprintf("http://localhost:%d", p)
	defer tsvr.Stop()

	api, c := newTestClients(t, apiep)

	zones, err := GetZones(api, c, []string{"example.com"})
	if err != nil {
		t.Fatalf("Unexpected error '%s'", err)
	}

	if !assert.Equal(t, 1, len(zones), "Number of zones does not match.") {
		t.FailNow()
	}

	// positions are 1-based and follow response order
	for i, r := range zones[0].WAFRules {
		if assert.NotNil(t, r.Position, "Rule %s has no position.", r.Description) {
			assert.Equal(t, i+1, r.Position.Index, "Position of rule %s does not match.", r.Description)
		}
	}
}

func TestGetZonesFiltered(t *testing.T) {
	tsvr := APIHarness{}
	p, err := tsvr.Start()
	if err != nil {
		t.Fatalf("Error starting API test server. %s", err)
	}

	apiep := fmt.Sprintf("http://localhost:%d", p)
	defer tsvr.Stop()

	api, c := newTestClients(t, apiep)

	tests := []struct {
		testid   string
		sites    []string
		expNames []string
	}{
		{
			"Single Site",
			[]string{"example.org"},
			[]string{"example.org"},
		},
		{
			"Two Sites In Provider Order",
			[]string{"nodefault.dev", "example.com"},
			[]string{"example.com", "nodefault.dev"},
		},
		{
			"Unknown Site",
			[]string{"missing.example"},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.testid, func(t *testing.T) {

			zones, err := GetZones(api, c, tt.sites)
			if err != nil {
				t.Fatalf("Unexpected error '%s'", err)
			}

			var names []string
			for _, z := range zones {
				names = append(names, z.Name)
			}
			assert.Equal(t, tt.expNames, names, "Filtered zone names do not match.")
		})
	}
}

func TestFilterZones(t *testing.T) {
	src := []cloudflare.Zone{
		{ID: "z1", Name: "a.example"},
		{ID: "z2", Name: "b.example"},
		{ID: "z3", Name: "a.example"},
		{ID: "z4", Name: "c.example"},
	}

	tests := []struct {
		testid string
		sites  []string
		expIDs []string
	}{
		{
			"Empty Filter Keeps Everything",
			nil,
			[]string{"z1", "z2", "z3", "z4"},
		},
		{
			"Exact Match Preserves Order",
			[]string{"c.example", "b.example"},
			[]string{"z2", "z4"},
		},
		{
			"Duplicates Unaffected",
			[]string{"a.example"},
			[]string{"z1", "z3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.testid, func(t *testing.T) {

			out := filterZones(src, tt.sites)

			var ids []string
			for _, z := range out {
				ids = append(ids, z.ID)
			}
			assert.Equal(t, tt.expIDs, ids, "Filtered zone IDs do not match.")

			// every kept zone's name must be a member of the filter set
			for _, z := range out {
				if len(tt.sites) == 0 {
					continue
				}
				var f bool
				for _, s := range tt.sites {
					if z.Name == s {
						f = true
						break
					}
				}
				assert.True(t, f, "Zone %s is not in the filter set.", z.Name)
			}
		})
	}
}

func TestInjectPositions(t *testing.T) {
	rules := []Rule{
		{ID: "a", Description: "A"},
		{ID: "b", Description: "B"},
		{ID: "c", Description: "C"},
	}

	out := injectPositions(rules)

	for i, r := range out {
		if assert.NotNil(t, r.Position, "Rule %s has no position.", r.ID) {
			assert.Equal(t, i+1, r.Position.Index, "Position of rule %s does not match.", r.ID)
		}
	}
}
