package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smazurov/sensorsim/internal/config"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// CreateModesCmd creates the modes command.
func CreateModesCmd() *cobra.Command {
	var sensorFile string
	var write bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "modes",
		Short: "Print the mode catalog",
		Long: `Loads the sensor description and prints its mode catalog in enumeration order. ` +
			`With --write the effective description, defaults included, is written back to the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadSensorConfig(sensorFile)
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return fmt.Errorf("%s: %w", sensorFile, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(cfg.Modes); err != nil {
					return err
				}
			} else {
				printModes(out, cfg.Name, catalog, cfg.LinkFrequencies)
			}

			if write {
				if err := config.SaveSensorConfig(sensorFile, cfg); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", sensorFile)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sensorFile, "sensor-file", "s", "sensor.toml", "Sensor description file")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the effective description back to the sensor file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print modes as JSON")
	return cmd
}

func printModes(w io.Writer, name string, c subdev.Catalog, linkFreqs []int64) {
	fmt.Fprintf(w, "%s: %d mode(s)\n", name, c.Len())
	fmt.Fprintf(w, "%-5s %-11s %-16s %-10s %-8s %-12s %-7s %-7s\n",
		"INDEX", "SIZE", "CODE", "INTERVAL", "FPS", "PIXEL_RATE", "HBLANK", "VBLANK")
	for i, m := range c.List() {
		fmt.Fprintf(w, "%-5d %-11s %-16s %-10s %-8.2f %-12d %-7d %-7d\n",
			i, fmt.Sprintf("%dx%d", m.Width, m.Height), subdev.CodeName(m.Code),
			m.Interval, m.Interval.FPS(), m.PixelRate, m.HBlank, m.VBlank)
	}
	for i, f := range linkFreqs {
		fmt.Fprintf(w, "link_frequency[%d] = %d Hz\n", i, f)
	}
}
