// Package segment implements the condensation core: decode, voice-activity
// detection, chunk planning, and chunk rendering for long-form audio.
package segment

import "fmt"

// SpeechInterval is a voiced region of the normalized PCM, in seconds
// relative to its zero. Invariant: 0 <= Start < End.
type SpeechInterval struct {
	Start float64
	End   float64
}

// Duration returns the length of the interval in seconds.
func (s SpeechInterval) Duration() float64 {
	return s.End - s.Start
}

func (s SpeechInterval) String() string {
	return fmt.Sprintf("[%.3f, %.3f)", s.Start, s.End)
}

// SpeechTimeline is an ordered, non-overlapping sequence of SpeechInterval.
// Intervals are sorted by Start; End[i] <= Start[i+1] for every adjacent
// pair. Use NormalizeTimeline to coerce upstream overlaps to touching.
type SpeechTimeline []SpeechInterval

// TotalSpeechSeconds sums the duration of every interval in the timeline.
func (t SpeechTimeline) TotalSpeechSeconds() float64 {
	var total float64
	for _, iv := range t {
		total += iv.Duration()
	}
	return total
}

// SilenceGap is the silence between two adjacent SpeechInterval entries.
// AfterIndex is the global timeline index of the interval preceding the gap.
type SilenceGap struct {
	Start      float64
	End        float64
	DurationS  float64
	AfterIndex int
}

// Chunk is a contiguous subslice of a SpeechTimeline, identified by the
// half-open range of global timeline indices [StartIndex, EndIndex).
type Chunk struct {
	StartIndex int
	EndIndex   int
	Intervals  SpeechTimeline
}

// Len returns the number of intervals in the chunk.
func (c Chunk) Len() int {
	return len(c.Intervals)
}

// ChunkPlan is the output of the planner: an ordered list of chunks and the
// global split indices between them. SplitIndices[k] is the timeline index
// after which a split occurred to produce Chunks[k] and Chunks[k+1].
type ChunkPlan struct {
	Chunks       []Chunk
	SplitIndices []int
}

// RenderedChunk is a WAV file on disk holding the condensed audio for one
// planned chunk, together with its logical range in original-source time.
type RenderedChunk struct {
	Path  string
	Index int // zero-based position within the plan
	Start float64
	End   float64
}

// Duration returns the logical (original-source-time) span of the chunk.
func (r RenderedChunk) Duration() float64 {
	return r.End - r.Start
}

// ArtifactPolicy controls what happens to intermediate files once a
// pipeline run finishes.
type ArtifactPolicy int

const (
	// CleanupOnSuccess removes intermediate files when the run succeeds and
	// retains them when it fails, to aid debugging.
	CleanupOnSuccess ArtifactPolicy = iota
	// AlwaysKeep never removes intermediate files, regardless of outcome.
	AlwaysKeep
)
