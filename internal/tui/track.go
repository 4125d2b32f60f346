// Package tui provides the Bubble Tea race interface.
package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/typedash/typedash/internal/model"
)

type styledCell struct {
	s       string
	width   int
	isSpace bool
}

// buildTrackCells renders the word strip: the in-flight word styled per
// character, then the upcoming window in the pending color.
func buildTrackCells(p model.PlayerState, current string, upcoming []string) []styledCell {
	out := make([]styledCell, 0, len(current)+16)
	runes := []rune(current)
	cursor := len(p.CharStates)
	for i, r := range runes {
		style := currentWordStyle
		if i < len(p.CharStates) {
			switch p.CharStates[i] {
			case model.CharCorrect:
				style = correctStyle
			case model.CharIncorrect:
				style = incorrectStyle
			}
		} else if i == cursor && !p.AwaitingSpace {
			style = style.Underline(true)
		}
		out = append(out, styledCell{
			s:     style.Render(string(r)),
			width: runewidth.RuneWidth(r),
		})
	}
	spaceStyle := pendingStyle
	if p.AwaitingSpace {
		spaceStyle = spaceStyle.Underline(true)
	}
	out = append(out, styledCell{s: spaceStyle.Render(" "), width: 1, isSpace: true})

	for wi, w := range upcoming {
		if wi > 0 {
			out = append(out, styledCell{s: pendingStyle.Render(" "), width: 1, isSpace: true})
		}
		for _, r := range w {
			out = append(out, styledCell{
				s:     pendingStyle.Render(string(r)),
				width: runewidth.RuneWidth(r),
			})
		}
	}
	return out
}

func renderCells(cells []styledCell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c.s)
	}
	return b.String()
}

// wrapCells breaks the strip at word boundaries so it fits the content
// width, falling back to a hard break for oversized words.
func wrapCells(cells []styledCell, width int) string {
	if width <= 0 {
		return renderCells(cells)
	}
	var out strings.Builder
	line := make([]styledCell, 0, len(cells))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(cells); {
		cell := cells[i]
		if lineWidth+cell.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderCells(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledCell{}, line[lastSpaceIdx+1:]...)
				lineWidth = cellsWidth(line)
				lastSpaceIdx = lastSpaceCell(line)
			} else {
				out.WriteString(renderCells(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, cell)
		lineWidth += cell.width
		if cell.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderCells(line))
	return out.String()
}

func cellsWidth(line []styledCell) int {
	total := 0
	for _, c := range line {
		total += c.width
	}
	return total
}

func lastSpaceCell(line []styledCell) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
