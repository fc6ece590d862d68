package search

import "unicode"

// cjkIdeographs covers CJK Unified Ideographs: the basic block and extensions A to F
var cjkIdeographs = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3400, Hi: 0x4DBF, Stride: 1},
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x20000, Hi: 0x2A6DF, Stride: 1},
		{Lo: 0x2A700, Hi: 0x2B73F, Stride: 1},
		{Lo: 0x2B740, Hi: 0x2B81F, Stride: 1},
		{Lo: 0x2B820, Hi: 0x2CEAF, Stride: 1},
		{Lo: 0x2CEB0, Hi: 0x2EBEF, Stride: 1},
	},
}

// IsChineseScript reports whether any character of text is a CJK ideograph
func IsChineseScript(text string) bool {
	for _, r := range text {
		if unicode.Is(cjkIdeographs, r) {
			return true
		}
	}
	return false
}
