package cfwaf

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Backup is a local snapshot of the WAF rule state of the fetched zones.
type Backup struct {
	ID      string
	Updated time.Time
	Zones   []ZoneBackup
}

// ZoneBackup holds one zone's ruleset identity and rules.
type ZoneBackup struct {
	ZoneID    string
	ZoneName  string
	RulesetID string
	Rules     []BackupRule
}

// BackupRule is the TOML-friendly form of a rule. Action parameters are
// stored as their raw JSON text, empty when the rule has none.
type BackupRule struct {
	ID               string
	Description      string
	Action           string
	Expression       string
	Enabled          bool
	Position         int
	ActionParameters string
}

// BackupZones serializes the given zones' WAF rules to a TOML file at the
// given path and returns the number of bytes written.
func BackupZones(zones []Zone, bpath string) (int, error) {
	b := buildBackup(zones)

	ib, err := writeBackupToTOMLFile(b, bpath)
	if err != nil {
		return 0, fmt.Errorf("Error while writing backup to disk at `%s`. %s", bpath, err)
	}

	return ib, nil
}

// buildBackup assembles a backup structure with a unique ID from the fetched
// zone state.
func buildBackup(zones []Zone) *Backup {
	zb := make([]ZoneBackup, 0, len(zones))
	var seed string
	for _, z := range zones {
		seed += z.ID

		rules := make([]BackupRule, 0, len(z.WAFRules))
		for _, r := range z.WAFRules {
			br := BackupRule{
				ID:               r.ID,
				Description:      r.Description,
				Action:           r.Action,
				Expression:       r.Expression,
				Enabled:          r.Enabled,
				ActionParameters: string(r.ActionParameters),
			}
			if r.Position != nil {
				br.Position = r.Position.Index
			}
			rules = append(rules, br)
		}

		zb = append(zb, ZoneBackup{
			ZoneID:    z.ID,
			ZoneName:  z.Name,
			RulesetID: z.DefaultRulesetID,
			Rules:     rules,
		})
	}

	// create a UID for the backup
	hasher := sha1.New()
	hasher.Write([]byte(seed + time.Now().String()))
	sha := hex.EncodeToString(hasher.Sum(nil))

	return &Backup{
		ID:      sha,
		Updated: time.Now(),
		Zones:   zb,
	}
}

// writeBackupToTOMLFile serializes the given backup object to a file at the
// given path.
func writeBackupToTOMLFile(b *Backup, bpath string) (int, error) {

	// validate the output path
	d := filepath.Dir(bpath)
	if _, err := os.Stat(d); os.IsNotExist(err) {
		return 0, fmt.Errorf("Output path does not exist: %s", d)
	}

	// encode the backup to TOML
	buf := new(bytes.Buffer)
	if err := toml.NewEncoder(buf).Encode(b); err != nil {
		return 0, err
	}

	// write to disk
	err := os.WriteFile(bpath, buf.Bytes(), 0644)
	if err != nil {
		return 0, err
	}

	return buf.Len(), nil
}
