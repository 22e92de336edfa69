package draw

// Style is an ANSI SGR sequence.
type Style string

const (
	StyleReset  Style = "\033[0m"
	StyleBold   Style = "\033[1m"
	StyleDim    Style = "\033[2m"
	StyleRed    Style = "\033[31m"
	StyleGreen  Style = "\033[32m"
	StyleYellow Style = "\033[33m"
	StyleCyan   Style = "\033[36m"
	StyleBrown  Style = "\033[38;5;130m"
	StyleTitle  Style = "\033[1;33m"
	StyleAlert  Style = "\033[1;31m"
)
