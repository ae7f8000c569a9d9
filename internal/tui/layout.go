package tui

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// Layout holds the computed panel geometry for a given terminal size.
type Layout struct {
	Header, Progress, Footer Rect
	Tasks                    Rect
	Main, Secondary          Rect
	TooSmall                 bool // below the minimum 80x24
}

// Calculate computes the panel layout for a terminal of the given size.
//
//   - Header and progress bar: full width, one row each at the top
//   - Footer: full width, one row at the bottom
//   - Tasks: 30% of width clamped to [26, 40], full body height
//   - Main: remaining width, 60% of body height
//   - Secondary: remaining width, remaining body height
func Calculate(width, height int) Layout {
	if width < 80 || height < 24 {
		return Layout{TooSmall: true}
	}

	bodyH := height - 3
	sidebarW := width * 30 / 100
	if sidebarW < 26 {
		sidebarW = 26
	}
	if sidebarW > 40 {
		sidebarW = 40
	}
	rightW := width - sidebarW
	mainH := bodyH * 60 / 100
	secH := bodyH - mainH

	return Layout{
		Header:    Rect{X: 0, Y: 0, Width: width, Height: 1},
		Progress:  Rect{X: 0, Y: 1, Width: width, Height: 1},
		Footer:    Rect{X: 0, Y: height - 1, Width: width, Height: 1},
		Tasks:     Rect{X: 0, Y: 2, Width: sidebarW, Height: bodyH},
		Main:      Rect{X: sidebarW, Y: 2, Width: rightW, Height: mainH},
		Secondary: Rect{X: sidebarW, Y: 2 + mainH, Width: rightW, Height: secH},
	}
}

// innerDims returns the content dimensions of a bordered panel.
func innerDims(r Rect) (w, h int) {
	w = r.Width - 2
	if w < 1 {
		w = 1
	}
	h = r.Height - 2
	if h < 1 {
		h = 1
	}
	return
}
