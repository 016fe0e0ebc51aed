package core

// Color is a palette entry for a screen cell. The platform layer maps each
// entry to a terminal colour; ColorDefault leaves the terminal's own.
type Color uint8

// Palette used by the board and HUD.
const (
	ColorDefault Color = iota
	ColorBlack
	ColorRed
	ColorGreen
	ColorYellow
	ColorBlue
	ColorMagenta
	ColorCyan
	ColorWhite
	ColorBrightWhite
	ColorOrange
	ColorDarkOrange
	ColorGray
	ColorDarkGray
	ColorBeige
	ColorSand
	ColorGold
	ColorPink
)

// Style is the colour and weight of a cell.
type Style struct {
	Fg   Color
	Bg   Color
	Bold bool
}

// Plain is the zero style.
var Plain = Style{}
