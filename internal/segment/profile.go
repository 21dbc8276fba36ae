package segment

// Default segmentation parameters, per the condensation core's published
// defaults.
const (
	defaultMaxChunkS         = 60.0
	defaultChunkSearchStartS = 30.0
	defaultMinGapForSplitS   = 3.0
	defaultBoundaryMarginS   = 0.30
	defaultMaxIntraGapS      = 0.8

	defaultThreshold    = 0.5
	defaultMinSilenceMs = 300
	defaultMinSpeechMs  = 250
	defaultSpeechPadMs  = 30
	defaultSampleRate   = 16000
)

// forceSplitBackoffS is the safety margin subtracted from max_chunk_s when
// the force-split routine picks a prefix length. Kept additive per the
// core's documented behavior: it must never scale with max_chunk_s.
const forceSplitBackoffS = 2.0

// SegmentationProfile is the validated set of knobs governing chunk
// planning, rendering, and VAD. Construct with NewSegmentationProfile;
// the zero value is not valid.
type SegmentationProfile struct {
	maxChunkS         float64
	chunkSearchStartS float64
	minGapForSplitS   float64
	boundaryMarginS   float64
	maxIntraGapS      float64

	threshold    float64
	minSilenceMs int
	minSpeechMs  int
	speechPadMs  int
	sampleRate   int
}

// MaxChunkS returns the hard ceiling for a chunk's reconstructed duration.
func (p SegmentationProfile) MaxChunkS() float64 { return p.maxChunkS }

// ChunkSearchStartS returns the duration threshold after which natural
// splits become eligible.
func (p SegmentationProfile) ChunkSearchStartS() float64 { return p.chunkSearchStartS }

// MinGapForSplitS returns the minimum silence-gap duration that qualifies
// as a natural split point.
func (p SegmentationProfile) MinGapForSplitS() float64 { return p.minGapForSplitS }

// BoundaryMarginS returns the silence padding added to each rendered
// chunk's head and tail.
func (p SegmentationProfile) BoundaryMarginS() float64 { return p.boundaryMarginS }

// MaxIntraGapS returns the per-gap cap on silence preserved between
// consecutive intervals inside a chunk.
func (p SegmentationProfile) MaxIntraGapS() float64 { return p.maxIntraGapS }

// Threshold returns the VAD speech-probability threshold.
func (p SegmentationProfile) Threshold() float64 { return p.threshold }

// MinSilenceMs returns the VAD minimum-silence duration in milliseconds.
func (p SegmentationProfile) MinSilenceMs() int { return p.minSilenceMs }

// MinSpeechMs returns the VAD minimum-speech duration in milliseconds.
func (p SegmentationProfile) MinSpeechMs() int { return p.minSpeechMs }

// SpeechPadMs returns the padding applied around detected speech spans.
func (p SegmentationProfile) SpeechPadMs() int { return p.speechPadMs }

// SampleRate returns the sample rate, in Hz, the VAD model expects.
func (p SegmentationProfile) SampleRate() int { return p.sampleRate }

// SegmentationProfileOption configures a SegmentationProfile before
// validation.
type SegmentationProfileOption func(*SegmentationProfile)

// WithMaxChunkS sets the hard ceiling for a chunk's reconstructed
// duration. Bounded 10.0-300.0.
func WithMaxChunkS(v float64) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.maxChunkS = v }
}

// WithChunkSearchStartS sets the duration threshold above which natural
// splits are eligible. Bounded 5.0-60.0.
func WithChunkSearchStartS(v float64) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.chunkSearchStartS = v }
}

// WithMinGapForSplitS sets the minimum silence-gap duration qualifying as
// a natural split point. Bounded 0.5-10.0.
func WithMinGapForSplitS(v float64) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.minGapForSplitS = v }
}

// WithBoundaryMarginS sets the silence padding added to each rendered
// chunk's head and tail. Bounded 0.0-1.0.
func WithBoundaryMarginS(v float64) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.boundaryMarginS = v }
}

// WithMaxIntraGapS sets the per-gap cap on silence preserved inside a
// chunk. Bounded 0.0-5.0.
func WithMaxIntraGapS(v float64) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.maxIntraGapS = v }
}

// WithThreshold sets the VAD speech-probability threshold. Must satisfy
// 0 < threshold < 1.
func WithThreshold(v float64) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.threshold = v }
}

// WithMinSilenceMs sets the VAD minimum-silence duration in milliseconds.
func WithMinSilenceMs(v int) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.minSilenceMs = v }
}

// WithMinSpeechMs sets the VAD minimum-speech duration in milliseconds.
func WithMinSpeechMs(v int) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.minSpeechMs = v }
}

// WithSpeechPadMs sets the VAD padding applied around detected speech
// spans, in milliseconds.
func WithSpeechPadMs(v int) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.speechPadMs = v }
}

// WithSampleRate sets the sample rate, in Hz, the VAD model expects.
func WithSampleRate(v int) SegmentationProfileOption {
	return func(p *SegmentationProfile) { p.sampleRate = v }
}

// NewSegmentationProfile builds a SegmentationProfile from defaults plus
// the given options, then validates it. Returns a *ConfigurationError
// wrapping ErrConfiguration on any out-of-bound or cross-field-invalid
// value.
func NewSegmentationProfile(opts ...SegmentationProfileOption) (SegmentationProfile, error) {
	p := SegmentationProfile{
		maxChunkS:         defaultMaxChunkS,
		chunkSearchStartS: defaultChunkSearchStartS,
		minGapForSplitS:   defaultMinGapForSplitS,
		boundaryMarginS:   defaultBoundaryMarginS,
		maxIntraGapS:      defaultMaxIntraGapS,
		threshold:         defaultThreshold,
		minSilenceMs:      defaultMinSilenceMs,
		minSpeechMs:       defaultMinSpeechMs,
		speechPadMs:       defaultSpeechPadMs,
		sampleRate:        defaultSampleRate,
	}

	for _, opt := range opts {
		opt(&p)
	}

	if err := p.validate(); err != nil {
		return SegmentationProfile{}, err
	}

	return p, nil
}

// validate checks every field against its declared bound and the
// cross-field constraint chunk_search_start_s < max_chunk_s.
func (p SegmentationProfile) validate() error {
	type bound struct {
		field    string
		value    float64
		min, max float64
	}

	for _, b := range []bound{
		{"max_chunk_s", p.maxChunkS, 10.0, 300.0},
		{"chunk_search_start_s", p.chunkSearchStartS, 5.0, 60.0},
		{"min_gap_for_split_s", p.minGapForSplitS, 0.5, 10.0},
		{"boundary_margin_s", p.boundaryMarginS, 0.0, 1.0},
		{"max_intra_gap_s", p.maxIntraGapS, 0.0, 5.0},
	} {
		if b.value < b.min || b.value > b.max {
			return &ConfigurationError{Field: b.field, Value: b.value, Min: b.min, Max: b.max}
		}
	}

	if p.threshold <= 0 || p.threshold >= 1 {
		return &ConfigurationError{Field: "threshold", Value: p.threshold, Min: 0, Max: 1,
			Message: "threshold must satisfy 0 < threshold < 1"}
	}

	if p.chunkSearchStartS >= p.maxChunkS {
		return &ConfigurationError{
			Field:   "chunk_search_start_s",
			Value:   p.chunkSearchStartS,
			Max:     p.maxChunkS,
			Message: "chunk_search_start_s must be < max_chunk_s",
		}
	}

	// The force-split backoff constant must fit strictly between the
	// search frontier and the ceiling, or the backward scan in 4.3.4
	// degenerates: a profile without that room is rejected outright.
	if p.maxChunkS-p.chunkSearchStartS <= forceSplitBackoffS {
		return &ConfigurationError{
			Field: "max_chunk_s",
			Value: p.maxChunkS,
			Message: "max_chunk_s - chunk_search_start_s must exceed the force-split " +
				"backoff constant (2.0s)",
		}
	}

	if p.minSilenceMs < 0 || p.minSpeechMs < 0 || p.speechPadMs < 0 || p.sampleRate <= 0 {
		return &ConfigurationError{
			Field:   "vad knobs",
			Message: "min_silence_ms, min_speech_ms, speech_pad_ms must be >= 0 and sample_rate > 0",
		}
	}

	return nil
}
