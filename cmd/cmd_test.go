package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/sensorsim/internal/config"
	"github.com/smazurov/sensorsim/pkg/subdev"
)

const twoModeSensor = `version = 1
name = "ds90ub940"
compatible = "ti,ds90ub940"

[identity]
vendor = "TI"
model = "fake-sensor"
orientation = "back"
rotation = 180

[[modes]]
width = 640
height = 480
code = "BGR888_1X24"
interval_numerator = 1
interval_denominator = 30

[[modes]]
width = 1920
height = 1200
code = "BGR888_1X24"
interval_numerator = 1
interval_denominator = 60
`

func writeSensorFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensor.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSensorOptions(t *testing.T) {
	opts, err := LoadSensorOptions(writeSensorFile(t, twoModeSensor))
	if err != nil {
		t.Fatalf("LoadSensorOptions: %v", err)
	}
	if opts.Catalog.Len() != 2 {
		t.Errorf("catalog has %d modes", opts.Catalog.Len())
	}
	if opts.Name != subdev.DefaultName {
		t.Errorf("name %q", opts.Name)
	}
	if _, ok := opts.Identity.(config.IdentityFile); !ok {
		t.Errorf("identity provider %T", opts.Identity)
	}

	bad := strings.Replace(twoModeSensor, `code = "BGR888_1X24"`, `code = "NOPE"`, 1)
	if _, err := LoadSensorOptions(writeSensorFile(t, bad)); err == nil {
		t.Error("expected error for unknown media bus code")
	}
}

func TestProbe_Defaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.toml")

	report, err := Probe(context.Background(), ProbeParams{SensorFile: missing})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if report.Format.Width != 1920 || report.Format.Height != 1200 {
		t.Errorf("default format %dx%d", report.Format.Width, report.Format.Height)
	}
	if len(report.Controls) != 9 {
		t.Errorf("%d controls, want 9 without identity", len(report.Controls))
	}
	if len(report.Topology.Links) != 1 {
		t.Errorf("links %+v", report.Topology.Links)
	}
}

func TestProbe_NegotiatesAndStreams(t *testing.T) {
	path := writeSensorFile(t, twoModeSensor)

	report, err := Probe(context.Background(), ProbeParams{
		SensorFile: path,
		Width:      1900,
		Height:     1100,
		Stream:     true,
	})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if report.Format.Width != 1920 || report.Format.Height != 1200 {
		t.Errorf("active format %dx%d, want nearest mode", report.Format.Width, report.Format.Height)
	}
	if report.Device.FrameInterval != (subdev.Fraction{Numerator: 1, Denominator: 60}) {
		t.Errorf("frame interval %s", report.Device.FrameInterval)
	}
	want := []subdev.StreamState{subdev.StreamStreaming, subdev.StreamIdle}
	if len(report.Stream) != 2 || report.Stream[0] != want[0] || report.Stream[1] != want[1] {
		t.Errorf("stream states %v, want %v", report.Stream, want)
	}
	if report.Device.Vendor != "TI" {
		t.Errorf("vendor %q", report.Device.Vendor)
	}
	if len(report.Controls) != 11 {
		t.Errorf("%d controls, want 11 with orientation and rotation", len(report.Controls))
	}
}

func TestModesCmd(t *testing.T) {
	path := writeSensorFile(t, twoModeSensor)

	cmd := CreateModesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--sensor-file", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	text := out.String()
	for _, want := range []string{"2 mode(s)", "640x480", "1920x1200", "BGR888_1X24"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestModesCmd_WriteDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "sensor.toml")

	cmd := CreateModesCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--sensor-file", path, "--write", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var modes []config.ModeConfig
	if err := json.Unmarshal([]byte(strings.SplitN(out.String(), "wrote", 2)[0]), &modes); err != nil {
		t.Fatalf("decode modes: %v\n%s", err, out.String())
	}
	if len(modes) != 1 || modes[0].Width != 1920 {
		t.Errorf("modes %+v", modes)
	}

	cfg, err := config.LoadSensorConfig(path)
	if err != nil {
		t.Fatalf("written file: %v", err)
	}
	if len(cfg.Modes) != 1 || cfg.Name != subdev.DefaultName {
		t.Errorf("written config %+v", cfg)
	}
}
