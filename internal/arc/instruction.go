// Package arc turns simplified polygons into arc(...) plot instructions.
package arc

import (
	"fmt"
	"strings"
)

// Instruction is one straight edge in the plot engine's command format.
type Instruction struct {
	Start int     `json:"t1"`
	End   int     `json:"t2"`
	X1    float64 `json:"x1"`
	X2    float64 `json:"x2"`
	Y1    float64 `json:"y1"`
	Y2    float64 `json:"y2"`
}

// String renders the instruction as
//
//	arc(<t1>,<t2>,<x1>,<x2>,s,<y1>,<y2>,0,none,true);
//
// with coordinates fixed to three decimals.
func (in Instruction) String() string {
	return fmt.Sprintf("arc(%d,%d,%.3f,%.3f,s,%.3f,%.3f,0,none,true);",
		in.Start, in.End, in.X1, in.X2, in.Y1, in.Y2)
}

// Strings renders every instruction.
func Strings(ins []Instruction) []string {
	out := make([]string, len(ins))
	for i, in := range ins {
		out[i] = in.String()
	}
	return out
}

// Join renders the instructions one per line.
func Join(ins []Instruction) string {
	var b strings.Builder
	for _, in := range ins {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}
