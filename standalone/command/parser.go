package command

import (
	"math"
	"strconv"
	"strings"

	"penarm/protocol"
)

// Parse converts one trimmed line into a Command. It never fails: malformed
// input yields an Invalid command.
func Parse(line string) Command {
	switch line {
	case protocol.CmdPenUp:
		return Command{Kind: PenUp}
	case protocol.CmdPenDown:
		return Command{Kind: PenDown}
	case protocol.CmdEnd:
		return Command{Kind: End}
	case protocol.CmdStart:
		return Command{Kind: Start}
	}
	return parseCoordinates(line)
}

// ParseLine trims surrounding whitespace the way the line assembler does,
// then parses. Use it for lines that did not come through the assembler.
func ParseLine(raw string) Command {
	return Parse(strings.TrimSpace(raw))
}

// parseCoordinates handles "(<num>, <num>)". Text outside the parentheses
// is ignored.
func parseCoordinates(line string) Command {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return Reject(ReasonBadFormat)
	}
	comma := strings.IndexByte(line[open+1:], ',')
	if comma < 0 {
		return Reject(ReasonBadFormat)
	}
	comma += open + 1
	closing := strings.IndexByte(line[comma+1:], ')')
	if closing < 0 {
		return Reject(ReasonBadFormat)
	}
	closing += comma + 1

	a, ok := parseNumber(line[open+1 : comma])
	if !ok {
		return Reject(ReasonBadNumbers)
	}
	b, ok := parseNumber(line[comma+1 : closing])
	if !ok {
		return Reject(ReasonBadNumbers)
	}
	return Move(a, b)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
