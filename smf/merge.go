package smf

// MergedNote is a note in the file-wide sequence, tagged with its track index
type MergedNote struct {
	Track int
	Note
}

// Merge combines per-track note lists, each ordered by Start, into a single
// list ordered by Start. Equal starts keep track order. This is a k-way merge
// that rescans every track head per step; track counts are small.
func Merge(tracks [][]Note) []MergedNote {
	total := 0
	for _, notes := range tracks {
		total += len(notes)
	}

	out := make([]MergedNote, 0, total)
	heads := make([]int, len(tracks))
	for len(out) < total {
		best := -1
		var bestStart uint64
		for i, notes := range tracks {
			if heads[i] >= len(notes) {
				continue
			}
			start := notes[heads[i]].Start
			if best < 0 || start < bestStart {
				best, bestStart = i, start
			}
		}
		out = append(out, MergedNote{Track: best, Note: tracks[best][heads[best]]})
		heads[best]++
	}
	return out
}
