package imaging

import "fmt"

// PlaceholderSVG renders a lightweight "Image n/a" stand-in sized to the
// requested display width so grids keep their layout when an asset is
// missing. width 0 falls back to PlaceholderSize.
func PlaceholderSVG(width int) []byte {
	size := width
	if size <= 0 {
		size = PlaceholderSize
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 300 300"><rect width="100%%" height="100%%" fill="#eee"/><text x="50%%" y="50%%" dominant-baseline="middle" text-anchor="middle" fill="#aaa" font-family="sans-serif" font-size="20">Image n/a</text></svg>`, size, size)
	return []byte(svg)
}
