package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smazurov/sensorsim/internal/logging"
	"github.com/smazurov/sensorsim/internal/sensor"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

// ProbeReport is what the probe command prints.
type ProbeReport struct {
	Device   sensor.DeviceInfo    `json:"device"`
	Format   subdev.Format        `json:"format"`
	Controls []sensor.ControlInfo `json:"controls"`
	Topology sensor.Topology      `json:"topology"`
	Stream   []subdev.StreamState `json:"stream,omitempty"`
}

// ProbeParams drives one probe run.
type ProbeParams struct {
	SensorFile string
	Width      uint32
	Height     uint32
	Stream     bool
}

// CreateProbeCmd creates the probe command.
func CreateProbeCmd() *cobra.Command {
	var params ProbeParams
	var logJSON bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Construct the sensor once and report its state",
		Long: `Builds the device with in-process collaborators, optionally negotiates an active ` +
			`format and cycles streaming, prints the resulting state and tears the device down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loggingConfig := logging.Config{Level: "warn", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)

			report, err := Probe(cmd.Context(), params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.SensorFile, "sensor-file", "s", "sensor.toml", "Sensor description file")
	cmd.Flags().Uint32Var(&params.Width, "width", 0, "Negotiate an active format of this width")
	cmd.Flags().Uint32Var(&params.Height, "height", 0, "Negotiate an active format of this height")
	cmd.Flags().BoolVar(&params.Stream, "stream", false, "Start and stop streaming once")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

// Probe constructs the sensor described by params, exercises it and tears it
// down again.
func Probe(ctx context.Context, params ProbeParams) (*ProbeReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := LoadSensorOptions(params.SensorFile)
	if err != nil {
		return nil, err
	}
	opts.Logger = logging.GetLogger("sensor")

	svc, err := sensor.NewService(opts)
	if err != nil {
		return nil, err
	}
	defer svc.Close()

	report := &ProbeReport{}
	if params.Width > 0 && params.Height > 0 {
		if _, err := svc.SetFormat(ctx, subdev.WhichActive, "", params.Width, params.Height); err != nil {
			return nil, fmt.Errorf("set format: %w", err)
		}
	}
	if params.Stream {
		for _, enable := range []bool{true, false} {
			state, err := svc.SetStream(ctx, enable)
			if err != nil {
				return nil, fmt.Errorf("set stream %v: %w", enable, err)
			}
			report.Stream = append(report.Stream, state)
		}
	}

	report.Format, err = svc.GetFormat(ctx, subdev.WhichActive, "")
	if err != nil {
		return nil, err
	}
	report.Device = svc.Info(ctx)
	report.Controls = svc.ListControls(ctx)
	report.Topology = svc.Topology(ctx)
	return report, nil
}

func printReport(w io.Writer, r *ProbeReport) {
	d := r.Device
	fmt.Fprintf(w, "device:     %s (%s)\n", d.Name, d.Compatible)
	if d.Vendor != "" || d.Model != "" {
		fmt.Fprintf(w, "identity:   %s %s\n", d.Vendor, d.Model)
	}
	fmt.Fprintf(w, "entity:     %s [%s]\n", d.Entity, d.Function)
	fmt.Fprintf(w, "format:     %dx%d %s field=%d colorspace=%d\n",
		r.Format.Width, r.Format.Height, subdev.CodeName(r.Format.Code), r.Format.Field, r.Format.Colorspace)
	fmt.Fprintf(w, "interval:   %s (%.2f fps)\n", d.FrameInterval, d.FrameInterval.FPS())
	for _, s := range r.Stream {
		fmt.Fprintf(w, "stream:     %s\n", s)
	}

	fmt.Fprintln(w, "controls:")
	for _, c := range r.Controls {
		ro := ""
		if c.ReadOnly {
			ro = " (ro)"
		}
		fmt.Fprintf(w, "  %-24s %-13s %d [%d..%d/%d]%s\n", c.Name, c.Type, c.Value, c.Min, c.Max, c.Step, ro)
	}

	fmt.Fprintln(w, "links:")
	for _, l := range r.Topology.Links {
		fmt.Fprintf(w, "  %s:%d -> %s:%d enabled=%v\n", l.Source, l.SourcePad, l.Sink, l.SinkPad, l.Enabled)
	}
}
