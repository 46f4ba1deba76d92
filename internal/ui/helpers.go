package ui

import (
	"strings"
	"unicode/utf8"
)

func indexOf(selected []int, idx int) int {
	for i, v := range selected {
		if v == idx {
			return i
		}
	}
	return -1
}

// toggle removes idx from selected, or appends it so that picking order
// becomes output order.
func toggle(selected []int, idx int) []int {
	if pos := indexOf(selected, idx); pos >= 0 {
		out := make([]int, 0, len(selected)-1)
		out = append(out, selected[:pos]...)
		return append(out, selected[pos+1:]...)
	}
	return append(selected, idx)
}

func firstNonEmpty(cells []string) int {
	for i, c := range cells {
		if c != "" {
			return i
		}
	}
	return 0
}

// nextNonEmpty moves from cur in direction step to the next non-empty
// cell, staying put at either end.
func nextNonEmpty(cells []string, cur, step int) int {
	for i := cur + step; i >= 0 && i < len(cells); i += step {
		if cells[i] != "" {
			return i
		}
	}
	return cur
}

func joinCells(cells []string) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", "⏎")
		if utf8.RuneCountInString(c) > maxCellWidth {
			c = string([]rune(c)[:maxCellWidth-1]) + "…"
		}
		parts[i] = c
	}
	return strings.Join(parts, " │ ")
}

func truncatePath(path string, max int) string {
	if len(path) > max {
		return "..." + path[len(path)-max+3:]
	}
	return path
}

// sanitize makes a sheet name usable in a file name.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
