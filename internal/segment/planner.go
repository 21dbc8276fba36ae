package segment

import "math"

// ChunkDuration computes D(chunk): the reconstructed duration of a chunk
// made of intervals, per the condensation core's sole definition of chunk
// duration (speech durations, plus capped inter-segment gaps, plus twice
// the boundary margin). This is the only function anywhere in the planner
// that is compared against max_chunk_s.
func ChunkDuration(intervals SpeechTimeline, profile SegmentationProfile) float64 {
	if len(intervals) == 0 {
		return 0
	}

	var speech, gaps float64
	for _, iv := range intervals {
		speech += iv.Duration()
	}
	for i := 0; i < len(intervals)-1; i++ {
		gap := intervals[i+1].Start - intervals[i].End
		if gap < 0 {
			gap = 0
		}
		gaps += math.Min(gap, profile.maxIntraGapS)
	}

	return speech + gaps + 2*profile.boundaryMarginS
}

// Plan partitions a normalized SpeechTimeline into the smallest number of
// chunks such that every chunk's D(chunk) <= profile.MaxChunkS(). Plan is
// a pure function: no randomness, no clock, no I/O, no mutation of its
// arguments. Call NormalizeTimeline first if the timeline's origin is not
// already guaranteed sorted and non-overlapping.
//
// Returns an empty ChunkPlan, nil for an empty timeline (the caller
// decides whether that is NoSpeechDetected). Returns
// *UnsplittableSegmentError if a single interval alone exceeds
// profile.MaxChunkS().
func Plan(timeline SpeechTimeline, profile SegmentationProfile) (ChunkPlan, error) {
	n := len(timeline)
	if n == 0 {
		return ChunkPlan{}, nil
	}

	gaps := CalculateSilenceGaps(timeline)

	var plan ChunkPlan
	start := 0
	for start < n {
		splitAt, forcedPrefixLen, err := nextSplit(timeline, gaps, start, profile)
		if err != nil {
			return ChunkPlan{}, err
		}

		end := splitAt + 1
		if forcedPrefixLen > 0 {
			end = start + forcedPrefixLen
			splitAt = end - 1
		}

		chunkIntervals := make(SpeechTimeline, end-start)
		copy(chunkIntervals, timeline[start:end])
		plan.Chunks = append(plan.Chunks, Chunk{
			StartIndex: start,
			EndIndex:   end,
			Intervals:  chunkIntervals,
		})

		if end < n {
			plan.SplitIndices = append(plan.SplitIndices, splitAt)
		}
		start = end
	}

	return plan, nil
}

// nextSplit grows a chunk starting at the global index start and returns
// where it closes. It returns either a natural/consume-all split index
// (splitAt, the last interval included, with forcedPrefixLen == 0) or a
// forced split (forcedPrefixLen > 0, the number of intervals from start
// to include).
func nextSplit(timeline SpeechTimeline, gaps []SilenceGap, start int, profile SegmentationProfile) (splitAt int, forcedPrefixLen int, err error) {
	n := len(timeline)
	searchMode := false

	for i := start; i < n; i++ {
		sub := timeline[start : i+1]
		d := ChunkDuration(sub, profile)

		if d >= profile.chunkSearchStartS {
			searchMode = true
		}

		// Rule 2 (natural split) is checked before rule 3 (force split) for
		// the same iteration: a natural split always wins at the same index.
		if searchMode && i < n-1 && gaps[i].DurationS >= profile.minGapForSplitS {
			return i, 0, nil
		}

		if d >= profile.maxChunkS {
			m, ferr := forceSplit(sub, profile)
			if ferr != nil {
				return 0, 0, ferr
			}
			return 0, m, nil
		}
	}

	// Consumed every remaining interval without triggering a split.
	return n - 1, 0, nil
}

// forceSplit scans backwards from the end of chunk (already known to have
// crossed max_chunk_s) and picks the prefix length m minimizing
// |D(chunk[:m]) - (max_chunk_s - forceSplitBackoffS)| subject to
// D(chunk[:m]) <= max_chunk_s, strictly.
func forceSplit(chunk SpeechTimeline, profile SegmentationProfile) (int, error) {
	n := len(chunk)
	target := profile.maxChunkS - forceSplitBackoffS

	bestM := -1
	bestDiff := math.Inf(1)
	for m := n; m >= 1; m-- {
		d := ChunkDuration(chunk[:m], profile)
		if d > profile.maxChunkS {
			continue
		}
		if diff := math.Abs(d - target); diff < bestDiff {
			bestDiff = diff
			bestM = m
		}
	}

	if bestM == -1 {
		// Even the single leading interval exceeds the ceiling: unsplittable.
		return 0, &UnsplittableSegmentError{
			SegmentStart: chunk[0].Start,
			SegmentEnd:   chunk[0].End,
			MaxChunkS:    profile.maxChunkS,
		}
	}

	return bestM, nil
}
