package subdev

import "testing"

func testCatalog(t *testing.T) Catalog {
	t.Helper()
	c, err := NewCatalog(
		Mode{Width: 640, Height: 480, Code: MbusFmtBGR888_1X24, Interval: Fraction{1, 30}, PixelRate: 50000000},
		Mode{Width: 1280, Height: 720, Code: MbusFmtBGR888_1X24, Interval: Fraction{1, 60}, PixelRate: 100000000, HBlank: 280, VBlank: 30},
		Mode{Width: 1920, Height: 1200, Code: MbusFmtBGR888_1X24, Interval: Fraction{10000, 600000}, PixelRate: DefaultPixelRate},
	)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return c
}

func TestNewCatalog_RejectsEmpty(t *testing.T) {
	if _, err := NewCatalog(); err == nil {
		t.Fatal("expected error for empty catalog")
	}
	if _, err := NewCatalog(Mode{Width: 0, Height: 10}); err == nil {
		t.Fatal("expected error for zero width mode")
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 1 {
		t.Fatalf("expected 1 mode, got %d", c.Len())
	}
	m, ok := c.At(0)
	if !ok {
		t.Fatal("At(0) reported missing")
	}
	if m.Width != 1920 || m.Height != 1200 || m.Code != MbusFmtBGR888_1X24 {
		t.Errorf("unexpected default mode %+v", m)
	}
	if m.Interval.FPS() != 60 {
		t.Errorf("expected 60 fps, got %v", m.Interval.FPS())
	}
	if _, ok := c.At(1); ok {
		t.Error("At(1) should be out of range")
	}
}

func TestCatalog_ListIsCopy(t *testing.T) {
	c := DefaultCatalog()
	list := c.List()
	list[0].Width = 1
	if m, _ := c.At(0); m.Width != 1920 {
		t.Errorf("catalog mutated through List: width %d", m.Width)
	}
}

func TestCatalog_Nearest(t *testing.T) {
	c := testCatalog(t)

	tests := []struct {
		name          string
		width, height uint32
		wantW, wantH  uint32
	}{
		{"exact small", 640, 480, 640, 480},
		{"exact mid", 1280, 720, 1280, 720},
		{"zero request", 0, 0, 640, 480},
		{"huge request", 10000, 10000, 1920, 1200},
		{"close to hd", 1300, 700, 1280, 720},
		{"between small and hd", 960, 600, 1280, 720},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := c.Nearest(tt.width, tt.height)
			if m.Width != tt.wantW || m.Height != tt.wantH {
				t.Errorf("Nearest(%d,%d) = %dx%d, want %dx%d",
					tt.width, tt.height, m.Width, m.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestCatalog_NearestTiePrefersLater(t *testing.T) {
	c, err := NewCatalog(
		Mode{Width: 100, Height: 100, Code: MbusFmtBGR888_1X24},
		Mode{Width: 300, Height: 100, Code: MbusFmtBGR888_1X24},
	)
	if err != nil {
		t.Fatal(err)
	}
	if m := c.Nearest(200, 100); m.Width != 300 {
		t.Errorf("expected later entry on tie, got %dx%d", m.Width, m.Height)
	}
}

func TestCatalog_NearestSingleEntry(t *testing.T) {
	c := DefaultCatalog()
	for _, req := range [][2]uint32{{0, 0}, {1, 1}, {640, 480}, {1920, 1200}, {8000, 6000}} {
		m := c.Nearest(req[0], req[1])
		if m.Width != 1920 || m.Height != 1200 {
			t.Errorf("Nearest(%d,%d) = %dx%d on single entry catalog", req[0], req[1], m.Width, m.Height)
		}
	}
}
