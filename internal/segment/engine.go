package segment

// Span is a voice-activity region expressed in PCM sample indices, the
// unit the VAD model itself emits. The Detector is the only place in the
// core that converts sample indices to seconds (index / sample_rate).
type Span struct {
	StartSample int
	EndSample   int
}

// Engine is the VAD model abstraction: an opaque detector that, given a
// full buffer of mono 16-bit PCM samples, returns the spans it judged to
// contain speech. The adapter (Detector) is the only caller; neither the
// planner nor the renderer ever see raw PCM.
type Engine interface {
	// DetectSpans returns speech spans found in pcm, sampled at
	// sampleRate, tuned by the profile's VAD knobs.
	DetectSpans(pcm []int16, sampleRate int, profile SegmentationProfile) ([]Span, error)
	// Close releases any resources (model handles, inference sessions).
	Close() error
}
