package dataset

type SourceID string

const (
	SourceBundled SourceID = "bundled"
	SourceMirror  SourceID = "mirror"
	SourceQuery   SourceID = "query"
)

// ChooseOrder is the season-snapshot fallback policy. The bundled copy is
// guaranteed fresh for the live season, while older seasons are static, so the
// current year reads locally first and every other year hits the mirror first.
// The direct query interface is always the last resort.
func ChooseOrder(year, currentYear int) []SourceID {
	if year == currentYear {
		return []SourceID{SourceBundled, SourceMirror, SourceQuery}
	}
	return []SourceID{SourceMirror, SourceBundled, SourceQuery}
}
