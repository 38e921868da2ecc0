package arc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Instruction
	}{
		{
			"vertical",
			"arc(0,0,0.300,0.300,s,0.700,0.310,0,none,true);",
			Instruction{X1: 0.3, X2: 0.3, Y1: 0.7, Y2: 0.31},
		},
		{
			"timeline without semicolon",
			"arc(13,17,0.690,0.690,s,0.250,0.250,0,none,true)",
			Instruction{Start: 13, End: 17, X1: 0.69, X2: 0.69, Y1: 0.25, Y2: 0.25},
		},
		{
			"negative values",
			"  arc(-5,-2,-1.500,2.000,s,-0.001,3,0,none,true);  ",
			Instruction{Start: -5, End: -2, X1: -1.5, X2: 2, Y1: -0.001, Y2: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_RoundTripsString(t *testing.T) {
	in := Instruction{Start: 3, End: 7, X1: 0.125, X2: 1.5, Y1: -2, Y2: 0.75}
	got, err := Parse(in.String())
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestParse_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"arc(0,0,0.3,0.3,0.7,0.3,0,none,true);",
		"arc(0.5,0,0.3,0.3,s,0.7,0.3,0,none,true);",
		"arc(0,0,NaN,0.3,s,0.7,0.3,0,none,true);",
		"arc(0,0,0.3,0.3,s,0.7,0.3,1,none,true);",
		"line(0,0,0.3,0.3,s,0.7,0.3,0,none,true);",
		"arc(99999999999999999999,0,0.3,0.3,s,0.7,0.3,0,none,true);",
	} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrMalformedInstruction, line)
	}
}

func TestParseAll(t *testing.T) {
	ins := []Instruction{{X1: 0.3, X2: 0.69, Y1: 0.31, Y2: 0.31}, {Start: 1, End: 2}}

	got, err := ParseAll(strings.NewReader("\n" + Join(ins) + "\n\n"))
	require.NoError(t, err)
	assert.Equal(t, ins, got)

	_, err = ParseAll(strings.NewReader(Join(ins) + "garbage\n"))
	assert.ErrorIs(t, err, ErrMalformedInstruction)
	assert.Contains(t, err.Error(), "line 3")
}
