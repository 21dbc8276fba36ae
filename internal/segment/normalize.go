package segment

import "sort"

// NormalizeTimeline sorts intervals by Start and coerces overlaps to
// touching (End[i] <= Start[i+1]), per the SpeechTimeline invariant.
// Degenerate or negative-duration intervals are dropped.
func NormalizeTimeline(raw SpeechTimeline) SpeechTimeline {
	if len(raw) == 0 {
		return nil
	}

	sorted := make(SpeechTimeline, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make(SpeechTimeline, 0, len(sorted))
	for _, iv := range sorted {
		if iv.End <= iv.Start {
			continue
		}
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if iv.Start < prev.End {
				// Overlap: start the later interval at the previous
				// interval's end so the two touch.
				if iv.Start < prev.Start {
					continue
				}
				if iv.End <= prev.End {
					// Fully contained in the previous interval; drop it.
					continue
				}
				out = append(out, SpeechInterval{Start: prev.End, End: iv.End})
				continue
			}
		}
		out = append(out, iv)
	}

	return out
}

// CalculateSilenceGaps builds the SilenceGap table for a normalized
// timeline. The table has len(timeline)-1 entries; gap k is the silence
// after interval k. This global indexing is load-bearing: the planner's
// split index k is the same k used here.
func CalculateSilenceGaps(timeline SpeechTimeline) []SilenceGap {
	if len(timeline) < 2 {
		return nil
	}

	gaps := make([]SilenceGap, 0, len(timeline)-1)
	for i := 0; i < len(timeline)-1; i++ {
		cur, next := timeline[i], timeline[i+1]
		duration := next.Start - cur.End
		if duration < 0 {
			duration = 0
		}
		gaps = append(gaps, SilenceGap{
			Start:      cur.End,
			End:        next.Start,
			DurationS:  duration,
			AfterIndex: i,
		})
	}
	return gaps
}
