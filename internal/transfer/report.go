package transfer

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Report summarizes one migration run: the identity mapping that was
// established and how many rows landed in each target table.
type Report struct {
	Character       string        `yaml:"character"`
	SourceCharID    int64         `yaml:"source_char_id"`
	TargetCharID    int64         `yaml:"target_char_id"`
	SourceAccountID int64         `yaml:"source_account_id"`
	TargetAccountID int64         `yaml:"target_account_id"`
	Tables          []TableReport `yaml:"tables"`
}

type TableReport struct {
	Table string `yaml:"table"`
	Rows  int64  `yaml:"rows"`
}

// WriteFile writes the report as YAML for the operator's records.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	header := fmt.Sprintf("# chartransfer report - %s\n\n", time.Now().Format(time.RFC3339))
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
