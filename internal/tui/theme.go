package tui

// Color palette shared by the chat view and the diff renderer.
const (
	colorFg      = "#F8FAFC" // Slate 50
	colorMuted   = "#94A3B8" // Slate 400
	colorAccent  = "#3B82F6" // Blue 500
	colorAccent2 = "#8B5CF6" // Violet 500
	colorSuccess = "#22C55E" // Green 500
	colorWarn    = "#F59E0B" // Amber 500
	colorError   = "#EF4444" // Red 500
)
