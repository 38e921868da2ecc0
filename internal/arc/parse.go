package arc

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrMalformedInstruction is returned for lines that are not arc(...)
// instructions.
var ErrMalformedInstruction = errors.New("malformed instruction")

var instructionPattern = regexp.MustCompile(
	`^arc\((-?\d+),(-?\d+),(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?),s,(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?),0,none,true\);?$`)

// Parse reads one instruction in the form String produces. The trailing
// semicolon is optional.
func Parse(line string) (Instruction, error) {
	m := instructionPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Instruction{}, errors.Wrapf(ErrMalformedInstruction, "%q", line)
	}

	var in Instruction
	var err error
	if in.Start, err = strconv.Atoi(m[1]); err != nil {
		return Instruction{}, errors.Wrap(ErrMalformedInstruction, err.Error())
	}
	if in.End, err = strconv.Atoi(m[2]); err != nil {
		return Instruction{}, errors.Wrap(ErrMalformedInstruction, err.Error())
	}
	for i, dst := range []*float64{&in.X1, &in.X2, &in.Y1, &in.Y2} {
		if *dst, err = strconv.ParseFloat(m[3+i], 64); err != nil {
			return Instruction{}, errors.Wrap(ErrMalformedInstruction, err.Error())
		}
	}
	return in, nil
}

// ParseAll reads one instruction per line, skipping blank lines.
func ParseAll(r io.Reader) ([]Instruction, error) {
	var out []Instruction
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		in, err := Parse(line)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", n)
		}
		out = append(out, in)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read instructions")
	}
	return out, nil
}
