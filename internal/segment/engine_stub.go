package segment

// stubWindowSamples is the frame size the stub engine evaluates at, chosen
// to match Silero's 32ms analysis window at 16kHz so stub-driven tests
// exercise the same span granularity as the native engine.
const stubWindowSamples = 512

// StubToggleWindows is the number of windows after which StubEngine
// toggles between speech and silence. At 512 samples/window and 16kHz,
// 16 windows is 8192 samples, 0.512 seconds.
const StubToggleWindows = 16

// StubConfidence is the fixed probability StubEngine reports for every
// window it marks as speech.
const StubConfidence = 0.9

// Compile-time interface check.
var _ Engine = (*StubEngine)(nil)

// StubEngine is the default, dependency-free VAD backend: it alternates
// between speech and silence every StubToggleWindows windows without
// inspecting the PCM content at all. It exists so the segmentation core
// builds and runs deterministically without an ONNX Runtime install; the
// real backend is OnnxSileroEngine, compiled in behind the "silero" build
// tag.
type StubEngine struct{}

// NewStubEngine creates a StubEngine.
func NewStubEngine() *StubEngine {
	return &StubEngine{}
}

// DetectSpans ignores profile.Threshold() and pcm content, returning
// deterministic alternating speech windows so callers exercising the
// planner and renderer get a reproducible, non-trivial timeline.
func (e *StubEngine) DetectSpans(pcm []int16, sampleRate int, _ SegmentationProfile) ([]Span, error) {
	windows := len(pcm) / stubWindowSamples
	var spans []Span
	var openStart = -1

	for w := 0; w < windows; w++ {
		speaking := (w/StubToggleWindows)%2 == 0
		if speaking && openStart == -1 {
			openStart = w * stubWindowSamples
		}
		if !speaking && openStart != -1 {
			spans = append(spans, Span{StartSample: openStart, EndSample: w * stubWindowSamples})
			openStart = -1
		}
	}
	if openStart != -1 {
		spans = append(spans, Span{StartSample: openStart, EndSample: windows * stubWindowSamples})
	}

	return spans, nil
}

// Close is a no-op for the stub engine.
func (e *StubEngine) Close() error { return nil }
