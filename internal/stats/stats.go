// Package stats contains match-history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/typedash/typedash/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates the local racer's match history.
type Summary struct {
	Matches     int
	Wins        int
	WinRate     float64
	AvgWPM      float64
	BestWPM     int
	AvgAccuracy float64
	TotalStaked int64
}

// Summarize computes the history summary for the local racer.
func Summarize(matches []model.MatchRecord) Summary {
	if len(matches) == 0 {
		return Summary{}
	}
	wins := lo.CountBy(matches, func(m model.MatchRecord) bool { return m.LocalWon() })
	wpms := WPMSeries(matches)
	accs := lo.Map(matches, func(m model.MatchRecord, _ int) float64 { return float64(localAccuracy(m)) })
	staked := lo.SumBy(matches, func(m model.MatchRecord) int64 { return m.Result.StakeAmount })

	return Summary{
		Matches:     len(matches),
		Wins:        wins,
		WinRate:     float64(wins) / float64(len(matches)),
		AvgWPM:      lo.Sum(wpms) / float64(len(wpms)),
		BestWPM:     int(lo.Max(wpms)),
		AvgAccuracy: lo.Sum(accs) / float64(len(accs)),
		TotalStaked: staked,
	}
}

// WPMSeries extracts the local racer's WPM per match, oldest first.
func WPMSeries(matches []model.MatchRecord) []float64 {
	return lo.Map(matches, func(m model.MatchRecord, _ int) float64 {
		return float64(localWPM(m))
	})
}

func localWPM(m model.MatchRecord) int {
	if m.LocalWon() {
		return m.Result.WinnerWPM
	}
	return m.Result.LoserWPM
}

func localAccuracy(m model.MatchRecord) int {
	if m.LocalWon() {
		return m.Result.WinnerAccuracy
	}
	return m.Result.LoserAccuracy
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the history summary and a WPM trend line.
// width bounds the sparkline; zero means unbounded.
func RenderSummary(w io.Writer, matches []model.MatchRecord, width int) error {
	if len(matches) == 0 {
		_, err := fmt.Fprintln(w, "No matches found.")
		return err
	}
	s := Summarize(matches)
	lines := []string{
		"Summary",
		fmt.Sprintf("Matches: %d", s.Matches),
		fmt.Sprintf("Wins: %d (%.0f%%)", s.Wins, s.WinRate*100),
		fmt.Sprintf("Avg WPM: %.1f", s.AvgWPM),
		fmt.Sprintf("Best WPM: %d", s.BestWPM),
		fmt.Sprintf("Avg Accuracy: %.1f%%", s.AvgAccuracy),
	}
	if s.TotalStaked > 0 {
		lines = append(lines, fmt.Sprintf("Total Staked: %d", s.TotalStaked))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	wpms := WPMSeries(matches)
	if width > 0 && len(wpms) > width {
		wpms = wpms[len(wpms)-width:]
	}
	if _, err := fmt.Fprintf(w, "WPM trend: %s\n", Sparkline(wpms)); err != nil {
		return err
	}
	return nil
}
