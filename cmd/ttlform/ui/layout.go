package ui

// Layout constants for the editor page
const (
	HeaderHeight      = 2
	StatusBarHeight   = 2
	DestinationHeight = 3
	FooterHeight      = 2

	PanelBorderWidth = 1
	PanelPaddingH    = 1

	MinimumTerminalWidth  = 40
	MinimumTerminalHeight = 16
	CompactModeWidth      = 80
	DefaultEditorHeight   = 12
)

// LayoutConfig provides computed layout dimensions based on terminal size
type LayoutConfig struct {
	TerminalWidth  int
	TerminalHeight int
	IsCompact      bool
}

// NewLayoutConfig creates a layout configuration for the given terminal size
func NewLayoutConfig(width, height int) LayoutConfig {
	if width < MinimumTerminalWidth {
		width = MinimumTerminalWidth
	}
	if height < MinimumTerminalHeight {
		height = MinimumTerminalHeight
	}
	return LayoutConfig{
		TerminalWidth:  width,
		TerminalHeight: height,
		IsCompact:      width < CompactModeWidth,
	}
}

// PanelContentWidth returns the content width inside a bordered panel
func (l LayoutConfig) PanelContentWidth() int {
	return l.TerminalWidth - (PanelBorderWidth * 2) - (PanelPaddingH * 2)
}

// EditorHeight is what is left for the Turtle buffer once the fixed rows are placed.
func (l LayoutConfig) EditorHeight() int {
	h := l.TerminalHeight - HeaderHeight - StatusBarHeight - DestinationHeight - FooterHeight - PanelBorderWidth*2
	if h < 3 {
		return 3
	}
	return h
}
