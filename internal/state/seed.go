package state

import (
	_ "embed"
	"fmt"

	"github.com/safeguardai/console/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// seedData is the embedded fallback snapshot the store starts from.
type seedData struct {
	Workers       []model.Worker       `yaml:"workers"`
	Violations    []model.Violation    `yaml:"violations"`
	Alerts        []model.Alert        `yaml:"alerts"`
	Notifications []model.Notification `yaml:"notifications"`
	Settings      model.Settings       `yaml:"settings"`
}

func loadSeed() (*seedData, error) {
	var seed seedData
	if err := yaml.Unmarshal(seedYAML, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixtures: %w", err)
	}
	return &seed, nil
}
