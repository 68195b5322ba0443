package cfwaf

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
)

func testBackupZones() []Zone {
	return []Zone{
		{
			ID:               "zone-example-com",
			Name:             "example.com",
			DefaultRulesetID: "zone-example-com-default",
			WAFRules: []Rule{
				{
					ID:               "rule-001",
					Description:      "Block bad bots",
					Action:           "block",
					Expression:       "cf.client.bot",
					Enabled:          true,
					Position:         &RulePosition{Index: 1},
					ActionParameters: json.RawMessage(`{"response":{"status_code":403}}`),
				},
				{
					ID:          "rule-002",
					Description: "Legacy allow",
					Action:      "skip",
					Expression:  "ip.src eq 192.0.2.10",
					Enabled:     false,
					Position:    &RulePosition{Index: 2},
				},
			},
		},
		{
			ID:   "zone-nodefault",
			Name: "nodefault.dev",
		},
	}
}

func TestBackupZones(t *testing.T) {
	bpath := filepath.Join(t.TempDir(), "cfwafctl-backup.toml")

	ib, err := BackupZones(testBackupZones(), bpath)
	if err != nil {
		t.Fatalf("Unexpected error '%s'", err)
	}
	assert.Greater(t, ib, 0, "Backup should have written bytes.")

	// read the file back and verify the snapshot round-trips
	var b Backup
	if _, err := toml.DecodeFile(bpath, &b); err != nil {
		t.Fatalf("Error decoding backup file. %s", err)
	}

	assert.NotEmpty(t, b.ID, "Backup ID is empty.")
	if !assert.Equal(t, 2, len(b.Zones), "Number of zones does not match.") {
		t.FailNow()
	}

	z := b.Zones[0]
	assert.Equal(t, "example.com", z.ZoneName, "Zone name does not match.")
	assert.Equal(t, "zone-example-com-default", z.RulesetID, "Ruleset ID does not match.")
	if !assert.Equal(t, 2, len(z.Rules), "Number of rules does not match.") {
		t.FailNow()
	}
	assert.Equal(t, "Block bad bots", z.Rules[0].Description, "Rule description does not match.")
	assert.Equal(t, 1, z.Rules[0].Position, "Rule position does not match.")
	assert.Equal(t, `{"response":{"status_code":403}}`, z.Rules[0].ActionParameters, "Action parameters do not match.")
	assert.Equal(t, "", z.Rules[1].ActionParameters, "Rule without parameters should back up an empty string.")

	assert.Equal(t, "nodefault.dev", b.Zones[1].ZoneName, "Zone name does not match.")
	assert.Equal(t, 0, len(b.Zones[1].Rules), "Zone without rules should back up none.")
}

func TestBackupZonesBadPath(t *testing.T) {
	_, err := BackupZones(testBackupZones(), "/does/not/exist/backup.toml")
	assert.Error(t, err, "Expected an error for a missing output directory.")
}
