package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/urfave/cli/v3"

	"github.com/starford/idmkit/internal/outline"
	"github.com/starford/idmkit/internal/tool"
)

// nbsp pads the first column. The outline parser only treats ASCII
// whitespace as indentation, so a padded first column still reads as a
// top-level line.
const nbsp = "\u00a0"

// Table aligns whitespace-separated columns of a flat outline.
func Table() *tool.Tool {
	return &tool.Tool{
		Name:  "tf",
		Usage: "Format a flat outline as an aligned table",
		IO:    true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "no-number-parsing",
				Aliases: []string{"n"},
				Usage:   "Left-align every column, even numeric ones",
			},
			&cli.IntFlag{
				Name:    "columns",
				Aliases: []string{"c"},
				Usage:   "Maximum number of aligned columns, 0 for all",
			},
		},
		Run: func(_ context.Context, env *tool.Env) error {
			o, err := env.Pipe.ReadOutline()
			if err != nil {
				return err
			}
			out, err := FormatTable(o, int(env.Cmd.Int("columns")), env.Cmd.Bool("no-number-parsing"))
			if err != nil {
				return err
			}
			return env.Pipe.Write(out)
		},
	}
}

// FormatTable aligns the words of each line of o into columns.
//
// The number of aligned columns is the smallest word count of any line,
// capped by maxColumns when it is positive. Words past the last column are
// kept as a trailing cell with their original spacing. Columns where every
// cell is a number or "-" are aligned on the exponent marker or decimal
// point unless noNumbers is set.
func FormatTable(o *outline.Outline, maxColumns int, noNumbers bool) (*outline.Outline, error) {
	columns := -1
	if maxColumns > 0 {
		columns = maxColumns
	}
	empty := true
	for i := range o.Sections {
		s := &o.Sections[i]
		if !s.Body.IsEmpty() {
			return nil, fmt.Errorf("tf: input is not a table: %q has a body", s.Head)
		}
		if strings.TrimSpace(s.Head) == "" {
			continue
		}
		empty = false
		if n := len(strings.Fields(s.Head)); columns < 0 || n < columns {
			columns = n
		}
	}
	if empty {
		c := o.Clone()
		return &c, nil
	}

	table := make([][]string, 0, len(o.Sections))
	for i := range o.Sections {
		table = append(table, splitRow(strings.TrimSpace(o.Sections[i].Head), columns))
	}

	numeric := make([]bool, columns)
	type extent struct{ left, right int }
	extents := make([]extent, columns)
	for col := 0; col < columns && !noNumbers; col++ {
		numeric[col] = true
		for _, row := range table {
			if col < len(row) && !isNumeric(row[col]) {
				numeric[col] = false
				break
			}
		}
	}
	for col := range columns {
		for _, row := range table {
			if col >= len(row) {
				continue
			}
			left := 0
			if numeric[col] {
				left = leftExtension(row[col])
			}
			extents[col].left = max(extents[col].left, left)
			extents[col].right = max(extents[col].right, width(row[col])-left)
		}
	}

	out := &outline.Outline{Attrs: o.Attrs.Clone()}
	for _, row := range table {
		if len(row) == 0 {
			out.Push(outline.Section{})
			continue
		}
		var b strings.Builder
		for col, cell := range row {
			if col >= columns {
				b.WriteString(cell)
				continue
			}
			left := 0
			if numeric[col] {
				left = leftExtension(cell)
			}
			if pad := extents[col].left - left; pad > 0 {
				fill := " "
				if col == 0 {
					fill = nbsp
				}
				b.WriteString(strings.Repeat(fill, pad))
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", extents[col].right-(width(cell)-left)+2))
		}
		out.PushLine(strings.TrimRight(b.String(), " "))
	}
	return out, nil
}

// splitRow cuts line into columns words plus an optional trailing cell
// holding the rest of the line verbatim.
func splitRow(line string, columns int) []string {
	if line == "" {
		return nil
	}
	var starts []int
	prevSpace := true
	for i, r := range line {
		space := unicode.IsSpace(r)
		if prevSpace && !space {
			starts = append(starts, i)
		}
		prevSpace = space
	}

	row := make([]string, 0, columns+1)
	for i, a := range starts {
		if i >= columns {
			row = append(row, strings.TrimSpace(line[a:]))
			break
		}
		b := len(line)
		if i+1 < len(starts) {
			b = starts[i+1]
		}
		row = append(row, strings.TrimSpace(line[a:b]))
	}
	return row
}

// isNumeric accepts numbers and the "-" missing-value marker.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "-" {
		return true
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// leftExtension is how far a number reaches left of its alignment point:
// the exponent marker, the decimal point, or the end of the number.
func leftExtension(num string) int {
	if i := strings.IndexByte(num, 'e'); i >= 0 {
		return i
	}
	if i := strings.IndexByte(num, '.'); i >= 0 {
		return i
	}
	return len(num)
}

func width(s string) int { return utf8.RuneCountInString(s) }
