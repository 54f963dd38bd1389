package transform

import "strings"

const categoryPathDelimiter = "."

// splitCategoryPath splits a dotted category path into up to three ordered
// levels. "electronics.audio.headphones" becomes ("electronics", "audio",
// "headphones"); missing levels come back empty.
func splitCategoryPath(code string) (main, sub, subSub string) {
	parts := strings.Split(code, categoryPathDelimiter)

	main = parts[0]
	if len(parts) > 1 {
		sub = parts[1]
	}
	if len(parts) > 2 {
		subSub = parts[2]
	}

	return main, sub, subSub
}
