// Package model defines shared data structures.
package model

import "time"

// Config defines practice settings.
type Config struct {
	CorpusPath string
	TimeLimit  time.Duration
	LogPath    string
	Seed       int64
	Plain      bool
}

// TestResult captures the outcome of a submitted typing test.
type TestResult struct {
	ElapsedSeconds  float64
	WPM             float64
	AccuracyPercent float64

	// Display-only breakdown of the numbers above.
	WordCount      int
	CorrectChars   int
	ReferenceChars int
}
