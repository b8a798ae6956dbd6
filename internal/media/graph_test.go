package media

import (
	"testing"

	"github.com/smazurov/sensorsim/pkg/subdev"
)

func sensorEntity(name string) subdev.Entity {
	return subdev.Entity{
		Name:     name,
		Function: subdev.EntityFunctionCamSensor,
		Pads:     []subdev.Pad{{Index: 0, Flags: subdev.PadFlagSource}},
	}
}

func receiverEntity(name string) subdev.Entity {
	return subdev.Entity{
		Name: name,
		Pads: []subdev.Pad{{Index: 0, Flags: subdev.PadFlagSink}},
	}
}

func TestGraph_RegisterEntity(t *testing.T) {
	tests := []struct {
		name    string
		entity  subdev.Entity
		wantErr bool
	}{
		{"valid", sensorEntity("cam0"), false},
		{"no name", subdev.Entity{Pads: []subdev.Pad{{}}}, true},
		{"no pads", subdev.Entity{Name: "bare"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(quietLogger())
			err := g.RegisterEntity(tt.entity)
			if (err != nil) != tt.wantErr {
				t.Errorf("RegisterEntity() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGraph_DuplicateEntity(t *testing.T) {
	g := NewGraph(quietLogger())
	if err := g.RegisterEntity(sensorEntity("cam0")); err != nil {
		t.Fatalf("RegisterEntity: %v", err)
	}
	if err := g.RegisterEntity(sensorEntity("cam0")); err == nil {
		t.Error("duplicate entity accepted")
	}
}

func TestGraph_Links(t *testing.T) {
	g := NewGraph(quietLogger())
	_ = g.RegisterEntity(sensorEntity("cam0"))
	_ = g.RegisterEntity(receiverEntity("csi2"))

	if err := g.CreateLink("csi2", 0, "cam0", 0); err == nil {
		t.Error("link from sink pad accepted")
	}
	if err := g.CreateLink("cam0", 1, "csi2", 0); err == nil {
		t.Error("link from missing pad accepted")
	}
	if err := g.CreateLink("cam0", 0, "csi2", 0); err != nil {
		t.Fatalf("CreateLink: %v", err)
	}
	if err := g.CreateLink("cam0", 0, "csi2", 0); err == nil {
		t.Error("duplicate link accepted")
	}

	links := g.Links()
	if len(links) != 1 || !links[0].Enabled {
		t.Fatalf("Links() = %+v", links)
	}

	g.UnregisterEntity("cam0")
	if len(g.Links()) != 0 {
		t.Error("links to an unregistered entity survived")
	}
	if _, ok := g.Entity("cam0"); ok {
		t.Error("entity still present")
	}
	if got := g.Entities(); len(got) != 1 || got[0].Name != "csi2" {
		t.Errorf("Entities() = %+v", got)
	}
}

func TestGraph_HostsDevice(t *testing.T) {
	g := NewGraph(quietLogger())
	dev, err := subdev.New(subdev.WithLogger(quietLogger()), subdev.WithMediaGraph(g))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e, ok := g.Entity(subdev.DefaultName)
	if !ok {
		t.Fatal("device entity not registered")
	}
	if e.Function != subdev.EntityFunctionCamSensor || len(e.Pads) != 1 {
		t.Errorf("entity = %+v", e)
	}

	dev.Close()
	if _, ok := g.Entity(subdev.DefaultName); ok {
		t.Error("entity survived Close")
	}
}
