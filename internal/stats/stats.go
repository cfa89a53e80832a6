// Package stats contains typing metrics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/typespeed/internal/model"
)

// Compute derives WPM and position-wise accuracy for a submitted text.
// typed is expected to be trimmed already. A non-positive elapsed time yields
// zero WPM rather than an infinite value.
func Compute(reference, typed string, elapsedSeconds float64) model.TestResult {
	if elapsedSeconds < 0 {
		elapsedSeconds = 0
	}
	words := len(strings.Fields(typed))
	minutes := elapsedSeconds / 60.0
	wpm := 0.0
	if minutes > 0 {
		wpm = float64(words) / minutes
	}

	refRunes := []rune(reference)
	correct := countMatches(refRunes, []rune(typed))
	accuracy := 0.0
	if len(refRunes) > 0 {
		accuracy = float64(correct) / float64(len(refRunes)) * 100
	}

	return model.TestResult{
		ElapsedSeconds:  elapsedSeconds,
		WPM:             wpm,
		AccuracyPercent: accuracy,
		WordCount:       words,
		CorrectChars:    correct,
		ReferenceChars:  len(refRunes),
	}
}

// MatchMask reports, for each typed position that falls inside the
// reference, whether the typed rune equals the reference rune.
func MatchMask(reference, typed []rune) []bool {
	n := min(len(reference), len(typed))
	mask := make([]bool, n)
	for i := 0; i < n; i++ {
		mask[i] = typed[i] == reference[i]
	}
	return mask
}

func countMatches(reference, typed []rune) int {
	correct := 0
	for _, ok := range MatchMask(reference, typed) {
		if ok {
			correct++
		}
	}
	return correct
}

// FormatSummary returns the one-line result summary shown after a test.
func FormatSummary(r model.TestResult) string {
	return fmt.Sprintf("Time: %.2f seconds | Speed: %.2f WPM | Accuracy: %.2f%%", r.ElapsedSeconds, r.WPM, r.AccuracyPercent)
}

// RenderResult prints a result table.
func RenderResult(w io.Writer, r model.TestResult) error {
	if _, err := fmt.Fprintln(w, "Test Results"); err != nil {
		return err
	}
	rows := [][]string{
		{"Time", fmt.Sprintf("%.2f s", r.ElapsedSeconds)},
		{"Speed", fmt.Sprintf("%.2f WPM", r.WPM)},
		{"Accuracy", fmt.Sprintf("%.2f%%", r.AccuracyPercent)},
		{"Words", fmt.Sprintf("%d", r.WordCount)},
		{"Matched", fmt.Sprintf("%d/%d", r.CorrectChars, r.ReferenceChars)},
	}
	headers := []string{"Metric", "Value"}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
