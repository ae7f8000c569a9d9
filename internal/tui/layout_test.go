package tui

import "testing"

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		height   int
		tooSmall bool
		sidebarW int
		rightW   int
		bodyH    int
		mainH    int
		secH     int
	}{
		{
			name:  "80x24 minimum viable",
			width: 80, height: 24,
			sidebarW: 26, // 80*30/100=24 → clamped to 26
			rightW:   54,
			bodyH:    21,
			mainH:    12, // 21*60/100
			secH:     9,
		},
		{
			name:  "120x40",
			width: 120, height: 40,
			sidebarW: 36,
			rightW:   84,
			bodyH:    37,
			mainH:    22,
			secH:     15,
		},
		{
			name:  "200x60",
			width: 200, height: 60,
			sidebarW: 40, // 60 → clamped to 40
			rightW:   160,
			bodyH:    57,
			mainH:    34,
			secH:     23,
		},
		{name: "79x24 too small (width)", width: 79, height: 24, tooSmall: true},
		{name: "80x23 too small (height)", width: 80, height: 23, tooSmall: true},
		{name: "0x0 too small", tooSmall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Calculate(tt.width, tt.height)
			if l.TooSmall != tt.tooSmall {
				t.Fatalf("TooSmall: got %v, want %v", l.TooSmall, tt.tooSmall)
			}
			if tt.tooSmall {
				return
			}

			if l.Header.Y != 0 || l.Header.Width != tt.width || l.Header.Height != 1 {
				t.Errorf("Header: got %+v", l.Header)
			}
			if l.Progress.Y != 1 || l.Progress.Width != tt.width || l.Progress.Height != 1 {
				t.Errorf("Progress: got %+v", l.Progress)
			}
			if l.Footer.Y != tt.height-1 || l.Footer.Width != tt.width || l.Footer.Height != 1 {
				t.Errorf("Footer: got %+v", l.Footer)
			}

			if l.Tasks.Width != tt.sidebarW || l.Tasks.Height != tt.bodyH || l.Tasks.Y != 2 {
				t.Errorf("Tasks: got %+v, want width %d height %d", l.Tasks, tt.sidebarW, tt.bodyH)
			}
			if l.Main.Width != tt.rightW || l.Secondary.Width != tt.rightW {
				t.Errorf("right width: main %d secondary %d, want %d", l.Main.Width, l.Secondary.Width, tt.rightW)
			}
			if l.Main.Height != tt.mainH {
				t.Errorf("Main.Height: got %d, want %d", l.Main.Height, tt.mainH)
			}
			if l.Secondary.Height != tt.secH {
				t.Errorf("Secondary.Height: got %d, want %d", l.Secondary.Height, tt.secH)
			}
			if l.Main.X != tt.sidebarW || l.Secondary.Y != 2+tt.mainH {
				t.Errorf("positions: main %+v secondary %+v", l.Main, l.Secondary)
			}
			if l.Main.Height+l.Secondary.Height != tt.bodyH {
				t.Errorf("right heights %d+%d != bodyH %d", l.Main.Height, l.Secondary.Height, tt.bodyH)
			}
		})
	}
}

func TestInnerDims(t *testing.T) {
	w, h := innerDims(Rect{Width: 30, Height: 10})
	if w != 28 || h != 8 {
		t.Errorf("innerDims = %dx%d, want 28x8", w, h)
	}
	w, h = innerDims(Rect{Width: 1, Height: 0})
	if w != 1 || h != 1 {
		t.Errorf("innerDims of degenerate rect = %dx%d, want 1x1", w, h)
	}
}
