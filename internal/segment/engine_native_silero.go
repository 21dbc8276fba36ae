//go:build silero

package segment

// NativeAvailable reports that the Silero VAD engine is compiled in.
func NativeAvailable() bool { return true }

// NewNativeEngine creates an OnnxSileroEngine with the given speech
// threshold.
func NewNativeEngine(threshold float64) (Engine, error) {
	return NewOnnxSileroEngine(threshold)
}
