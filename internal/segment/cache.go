package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// cacheEntry is the wire format of one timeline interval in the sidecar
// JSON cache: a bare {"start": f, "end": f} object, seconds as floats.
type cacheEntry struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// cachePaths returns the sidecar JSON cache path and its companion hash
// file path for a given canonical WAV path.
func cachePaths(wavPath string) (jsonPath, hashPath string) {
	base := strings.TrimSuffix(wavPath, ".wav")
	return base + ".vad.json", base + ".vad.hash"
}

// profileHash hashes the VAD-relevant SegmentationProfile fields so the
// cache can be invalidated on profile change. Resolves the core's open
// question on stale-cache reuse: the original never invalidates; this
// does, by keying on every field detect_speech actually consults.
func profileHash(p SegmentationProfile) string {
	h := sha256.New()
	fmt.Fprintf(h, "threshold=%.6f;min_silence_ms=%d;min_speech_ms=%d;speech_pad_ms=%d;sample_rate=%d",
		p.threshold, p.minSilenceMs, p.minSpeechMs, p.speechPadMs, p.sampleRate)
	return hex.EncodeToString(h.Sum(nil))
}

// loadCachedTimeline reads the sidecar cache for wavPath, returning
// (timeline, true) on a usable hit or (nil, false) on any miss: missing
// file, malformed JSON, empty array, or a hash mismatch against profile.
// The cache is advisory, never authoritative, per the VAD contract.
func loadCachedTimeline(reader fileReader, wavPath string, profile SegmentationProfile) (SpeechTimeline, bool) {
	jsonPath, hashPath := cachePaths(wavPath)

	storedHash, err := reader.ReadFile(hashPath)
	if err != nil || string(storedHash) != profileHash(profile) {
		return nil, false
	}

	raw, err := reader.ReadFile(jsonPath)
	if err != nil {
		return nil, false
	}

	var entries []cacheEntry
	if err := json.Unmarshal(raw, &entries); err != nil || len(entries) == 0 {
		return nil, false
	}

	timeline := make(SpeechTimeline, len(entries))
	for i, e := range entries {
		timeline[i] = SpeechInterval{Start: e.Start, End: e.End}
	}
	return timeline, true
}

// saveCachedTimeline writes the sidecar cache and its profile-hash
// companion file for wavPath. Failures are not fatal to detection: the
// cache is a pure optimization.
func saveCachedTimeline(writer fileWriter, wavPath string, profile SegmentationProfile, timeline SpeechTimeline) error {
	jsonPath, hashPath := cachePaths(wavPath)

	entries := make([]cacheEntry, len(timeline))
	for i, iv := range timeline {
		entries[i] = cacheEntry{Start: iv.Start, End: iv.End}
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal vad cache: %w", err)
	}
	if err := writer.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("write vad cache: %w", err)
	}
	if err := writer.WriteFile(hashPath, []byte(profileHash(profile)), 0644); err != nil {
		return fmt.Errorf("write vad cache hash: %w", err)
	}
	return nil
}
