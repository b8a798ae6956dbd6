package cmd

import (
	"fmt"

	"github.com/smazurov/sensorsim/internal/config"
	"github.com/smazurov/sensorsim/internal/sensor"
)

// LoadSensorOptions reads a sensor description and turns it into service
// options. A missing file describes the built-in device.
func LoadSensorOptions(path string) (*sensor.ServiceOptions, error) {
	cfg, err := config.LoadSensorConfig(path)
	if err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sensor.ServiceOptions{
		Name:            cfg.Name,
		Compatible:      cfg.Compatible,
		Catalog:         catalog,
		LinkFrequencies: cfg.LinkFrequencies,
		Identity:        config.IdentityFile{Path: path},
	}, nil
}
