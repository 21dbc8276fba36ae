package segment

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// CachePaths exports cachePaths for testing.
var CachePaths = cachePaths

// ProfileHash exports profileHash for testing.
var ProfileHash = profileHash

// LoadCachedTimeline exports loadCachedTimeline for testing.
var LoadCachedTimeline = loadCachedTimeline

// SaveCachedTimeline exports saveCachedTimeline for testing.
var SaveCachedTimeline = saveCachedTimeline

// ReadPCM16 exports readPCM16 for testing.
var ReadPCM16 = readPCM16

// FileReader exports the fileReader interface for testing.
type FileReader = fileReader

// FileWriter exports the fileWriter interface for testing.
type FileWriter = fileWriter

// GracefulRunner exports the gracefulRunner interface for testing.
type GracefulRunner = gracefulRunner
