package grapheme

import "sort"

// Class is a grapheme-cluster-break category. The set is the simplified
// subset of UAX #29 the break engine needs: anything unlisted is Other
// and breaks on both sides by default.
type Class uint8

const (
	// ClassOther is every codepoint without a listed break property.
	ClassOther Class = iota
	// ClassControl covers control and format codepoints other than CR,
	// LF, and ZWJ; they always form single-codepoint clusters.
	ClassControl
	// ClassCR is U+000D.
	ClassCR
	// ClassLF is U+000A.
	ClassLF
	// ClassExtend covers combining marks, variation selectors, and emoji
	// modifiers; they attach to the preceding cluster.
	ClassExtend
	// ClassZWJ is U+200D, which glues its neighbors into one cluster.
	ClassZWJ
	// ClassRegionalIndicator covers U+1F1E6..U+1F1FF, paired up into
	// flag clusters.
	ClassRegionalIndicator
)

func (c Class) String() string {
	switch c {
	case ClassControl:
		return "Control"
	case ClassCR:
		return "CR"
	case ClassLF:
		return "LF"
	case ClassExtend:
		return "Extend"
	case ClassZWJ:
		return "ZWJ"
	case ClassRegionalIndicator:
		return "RegionalIndicator"
	default:
		return "Other"
	}
}

type classRange struct {
	lo, hi rune
	class  Class
}

// classTable is sorted by lo and searched with a binary probe. Ranges are
// distilled from GraphemeBreakProperty.txt and emoji-data.txt; coverage
// targets the scripts and emoji machinery the break rules act on, with
// everything else defaulting to Other.
var classTable = []classRange{
	{0x0000, 0x0009, ClassControl},
	{0x000A, 0x000A, ClassLF},
	{0x000B, 0x000C, ClassControl},
	{0x000D, 0x000D, ClassCR},
	{0x000E, 0x001F, ClassControl},
	{0x007F, 0x009F, ClassControl},
	{0x00AD, 0x00AD, ClassControl}, // soft hyphen
	{0x0300, 0x036F, ClassExtend},  // combining diacritical marks
	{0x0483, 0x0489, ClassExtend},
	{0x0591, 0x05BD, ClassExtend},
	{0x05BF, 0x05BF, ClassExtend},
	{0x0610, 0x061A, ClassExtend},
	{0x064B, 0x065F, ClassExtend},
	{0x0670, 0x0670, ClassExtend},
	{0x06D6, 0x06DC, ClassExtend},
	{0x0711, 0x0711, ClassExtend},
	{0x0730, 0x074A, ClassExtend},
	{0x07A6, 0x07B0, ClassExtend},
	{0x0816, 0x0819, ClassExtend},
	{0x0900, 0x0902, ClassExtend},
	{0x093C, 0x093C, ClassExtend},
	{0x0941, 0x0948, ClassExtend},
	{0x094D, 0x094D, ClassExtend},
	{0x0951, 0x0957, ClassExtend},
	{0x0E31, 0x0E31, ClassExtend},
	{0x0E34, 0x0E3A, ClassExtend},
	{0x0E47, 0x0E4E, ClassExtend},
	{0x1AB0, 0x1AFF, ClassExtend}, // combining diacritical marks extended
	{0x1DC0, 0x1DFF, ClassExtend}, // combining diacritical marks supplement
	{0x200B, 0x200B, ClassControl},
	{0x200C, 0x200C, ClassExtend}, // ZWNJ
	{0x200D, 0x200D, ClassZWJ},
	{0x200E, 0x200F, ClassControl},
	{0x2028, 0x202E, ClassControl},
	{0x2060, 0x2064, ClassControl},
	{0x20D0, 0x20FF, ClassExtend}, // combining marks for symbols
	{0xFE00, 0xFE0F, ClassExtend}, // variation selectors
	{0xFE20, 0xFE2F, ClassExtend}, // combining half marks
	{0xFEFF, 0xFEFF, ClassControl},
	{0xFFF9, 0xFFFB, ClassControl},
	{0x1F1E6, 0x1F1FF, ClassRegionalIndicator},
	{0x1F3FB, 0x1F3FF, ClassExtend}, // emoji skin tone modifiers
	{0xE0001, 0xE0001, ClassControl},
	{0xE0020, 0xE007F, ClassExtend}, // emoji tag sequence characters
	{0xE0100, 0xE01EF, ClassExtend}, // variation selectors supplement
}

// Lookup returns the break class of r. Unlisted codepoints are Other.
func Lookup(r rune) Class {
	i := sort.Search(len(classTable), func(i int) bool {
		return classTable[i].hi >= r
	})
	if i < len(classTable) && r >= classTable[i].lo {
		return classTable[i].class
	}
	return ClassOther
}
