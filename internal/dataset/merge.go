package dataset

// MergeWhole reconciles season and range rows for the requested ids in range
// mode: the union of both rows where both exist, with range values winning
// field-by-field. Ids with neither row are dropped.
func MergeWhole(ids []int64, rangeRows, seasonRows map[int64]PlayerRow) []PlayerRow {
	out := make([]PlayerRow, 0, len(ids))

	for _, id := range ids {
		season, hasSeason := seasonRows[id]
		ranged, hasRange := rangeRows[id]

		switch {
		case hasSeason && hasRange:
			merged := season.Clone()
			for k, v := range ranged {
				merged[k] = v
			}
			out = append(out, merged)
		case hasRange:
			out = append(out, ranged.Clone())
		case hasSeason:
			out = append(out, season.Clone())
		}
	}

	return out
}

// MergeForKeys starts from the season row (or the range row when no season row
// exists) and overlays only the named keys from the range row. This serves the
// keys that are only computable from the event-level source while the user is
// still in season mode: season-only fields are preserved, not dropped.
func MergeForKeys(ids []int64, rangeRows, seasonRows map[int64]PlayerRow,
	keys []string) []PlayerRow {
	out := make([]PlayerRow, 0, len(ids))

	for _, id := range ids {
		season, hasSeason := seasonRows[id]
		ranged, hasRange := rangeRows[id]

		var merged PlayerRow
		switch {
		case hasSeason:
			merged = season.Clone()
		case hasRange:
			merged = ranged.Clone()
		default:
			continue
		}

		if hasRange {
			for _, key := range keys {
				if v, ok := ranged[key]; ok {
					merged[key] = v
				}
			}
		}

		out = append(out, merged)
	}

	return out
}

// NeedsRangeSource reports whether any selected key can only be served by the
// event-level range source. Callers not already in range mode synthesize a
// FullSeasonWindow request for just those keys.
func NeedsRangeSource(keys []string, rangeOnly map[string]bool) bool {
	for _, key := range keys {
		if rangeOnly[key] {
			return true
		}
	}
	return false
}
