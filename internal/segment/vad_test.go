package segment_test

import (
	"path/filepath"
	"testing"

	"github.com/duskwave/condense/internal/segment"
)

// countingEngine wraps StubEngine and counts DetectSpans calls, so tests
// can assert the cache actually short-circuits the engine on a hit.
type countingEngine struct {
	inner *segment.StubEngine
	calls int
}

func (c *countingEngine) DetectSpans(pcm []int16, sampleRate int, profile segment.SegmentationProfile) ([]segment.Span, error) {
	c.calls++
	return c.inner.DetectSpans(pcm, sampleRate, profile)
}

func (c *countingEngine) Close() error { return c.inner.Close() }

func TestDetector_DetectSpeech_CacheHitSkipsEngine(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavPath := filepath.Join(dir, "session.wav")
	writeTestWAV(t, wavPath, 16000, 16000*2)

	profile := defaultProfile(t)
	engine := &countingEngine{inner: segment.NewStubEngine()}
	detector := segment.NewDetector(engine)

	first, err := detector.DetectSpeech(wavPath, profile)
	if err != nil {
		t.Fatalf("DetectSpeech() error = %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("engine.calls = %d after first call, want 1", engine.calls)
	}

	second, err := detector.DetectSpeech(wavPath, profile)
	if err != nil {
		t.Fatalf("DetectSpeech() error = %v", err)
	}
	if engine.calls != 1 {
		t.Errorf("engine.calls = %d after cache hit, want 1", engine.calls)
	}
	if len(first) != len(second) {
		t.Errorf("cached result length = %d, want %d", len(second), len(first))
	}
}

func TestDetector_DetectSpeech_NormalizesEngineOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wavPath := filepath.Join(dir, "session.wav")
	writeTestWAV(t, wavPath, 16000, 16000*2)

	profile := defaultProfile(t)
	detector := segment.NewDetector(segment.NewStubEngine())

	timeline, err := detector.DetectSpeech(wavPath, profile)
	if err != nil {
		t.Fatalf("DetectSpeech() error = %v", err)
	}

	for i := 1; i < len(timeline); i++ {
		if timeline[i].Start < timeline[i-1].End {
			t.Errorf("timeline not normalized: interval %d starts before interval %d ends", i, i-1)
		}
	}
}

func TestReadPCM16(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pcm.wav")
	writeTestWAV(t, path, 16000, 1600)

	pcm, sampleRate, err := segment.ReadPCM16(path)
	if err != nil {
		t.Fatalf("ReadPCM16() error = %v", err)
	}
	if sampleRate != 16000 {
		t.Errorf("sampleRate = %d, want 16000", sampleRate)
	}
	if len(pcm) != 1600 {
		t.Errorf("len(pcm) = %d, want 1600", len(pcm))
	}
}
