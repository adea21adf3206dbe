// Package ansi splits terminal text into literal runs and escape sequences.
//
// Only the structure of a sequence is decoded here: CSI parameters are
// parsed into integers and the sequence is classified by its final byte.
// Interpreting what a sequence means for text style is left to the caller.
package ansi

import (
	"strconv"
	"strings"
	"unicode/utf8"

	xansi "github.com/charmbracelet/x/ansi"
)

// Control bytes.
const (
	ESC = 0x1b
	CSI = '['
)

// Kind identifies a token type.
type Kind int

const (
	// KindText is a run of printable text with no escape bytes.
	KindText Kind = iota
	// KindEscape is a single escape sequence.
	KindEscape
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindEscape:
		return "escape"
	default:
		return "unknown"
	}
}

// SequenceKind classifies an escape sequence.
type SequenceKind int

const (
	// SeqUnknown is any escape outside the graphics and reset-mode forms.
	SeqUnknown SequenceKind = iota
	// SeqGraphics is Select Graphic Rendition: ESC [ params m.
	SeqGraphics
	// SeqResetMode is ESC [ = n l (or ESC [ n l).
	SeqResetMode
)

func (k SequenceKind) String() string {
	switch k {
	case SeqGraphics:
		return "graphics"
	case SeqResetMode:
		return "reset-mode"
	default:
		return "unknown"
	}
}

// Sequence is a decoded escape sequence.
type Sequence struct {
	Kind SequenceKind

	// Params holds the numeric CSI parameters. Empty parameters decode
	// as 0, and a graphics sequence without parameters decodes as [0].
	Params []int

	// Raw is the full sequence text including the leading ESC.
	Raw string
}

// Token is one element of a tokenized line.
type Token struct {
	Kind Kind

	// Text is set for KindText tokens.
	Text string

	// Seq is set for KindEscape tokens.
	Seq Sequence

	// Offset is the byte offset of the token in the scanned line.
	Offset int
}

// Tokenize splits line into text runs and escape sequences, preserving order.
// Invalid UTF-8, an ESC at the end of the line, a CSI sequence without a
// final byte, or a non-numeric parameter is reported as a *SyntaxError.
func Tokenize(line string) ([]Token, error) {
	var tokens []Token
	start := 0
	i := 0
	for i < len(line) {
		if line[i] != ESC {
			r, size := utf8.DecodeRuneInString(line[i:])
			if r == utf8.RuneError && size <= 1 {
				return nil, &SyntaxError{Offset: i, Msg: "invalid UTF-8"}
			}
			i += size
			continue
		}

		if i > start {
			tokens = append(tokens, Token{Kind: KindText, Text: line[start:i], Offset: start})
		}

		seq, n, err := decodeEscape(line[i:])
		if err != nil {
			err.Offset += i
			return nil, err
		}
		tokens = append(tokens, Token{Kind: KindEscape, Seq: seq, Offset: i})
		i += n
		start = i
	}
	if start < len(line) {
		tokens = append(tokens, Token{Kind: KindText, Text: line[start:], Offset: start})
	}
	return tokens, nil
}

// decodeEscape decodes the sequence at the start of s, which begins with ESC.
// It returns the sequence and the number of bytes consumed.
func decodeEscape(s string) (Sequence, int, *SyntaxError) {
	if len(s) < 2 {
		return Sequence{}, 0, &SyntaxError{Msg: "truncated escape sequence"}
	}
	if s[1] != CSI {
		// Two-byte escape (or the introducer of a string sequence such as OSC).
		r, size := utf8.DecodeRuneInString(s[1:])
		if r == utf8.RuneError && size <= 1 {
			return Sequence{}, 0, &SyntaxError{Offset: 1, Msg: "invalid UTF-8"}
		}
		return Sequence{Kind: SeqUnknown, Raw: s[:1+size]}, 1 + size, nil
	}

	// CSI: parameter bytes 0x30-0x3F, intermediate bytes 0x20-0x2F, final 0x40-0x7E.
	j := 2
	for j < len(s) && s[j] >= 0x30 && s[j] <= 0x3F {
		j++
	}
	paramEnd := j
	for j < len(s) && s[j] >= 0x20 && s[j] <= 0x2F {
		j++
	}
	if j >= len(s) {
		return Sequence{}, 0, &SyntaxError{Msg: "unterminated control sequence"}
	}
	final := s[j]
	if final < 0x40 || final > 0x7E {
		return Sequence{}, 0, &SyntaxError{Offset: j, Msg: "invalid control sequence byte"}
	}
	n := j + 1
	raw := s[:n]
	param := s[2:paramEnd]
	intermediate := s[paramEnd:j]

	seq := Sequence{Kind: SeqUnknown, Raw: raw}
	if intermediate != "" {
		return seq, n, nil
	}

	switch {
	case final == 'm' && !hasPrivateMarker(param):
		params, err := parseParams(param)
		if err != nil {
			return Sequence{}, 0, err
		}
		if len(params) == 0 {
			params = []int{0}
		}
		seq.Kind = SeqGraphics
		seq.Params = params
	case final == 'l' && (!hasPrivateMarker(param) || param[0] == '='):
		params, err := parseParams(strings.TrimPrefix(param, "="))
		if err != nil {
			return Sequence{}, 0, err
		}
		seq.Kind = SeqResetMode
		seq.Params = params
	}
	return seq, n, nil
}

func hasPrivateMarker(param string) bool {
	return param != "" && param[0] >= '<' && param[0] <= '?'
}

// parseParams parses a ';' separated list of decimal parameters.
func parseParams(param string) ([]int, *SyntaxError) {
	if param == "" {
		return nil, nil
	}
	fields := strings.Split(param, ";")
	params := make([]int, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			params = append(params, 0)
			continue
		}
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return nil, &SyntaxError{Offset: 2, Msg: "invalid parameter " + strconv.Quote(f)}
		}
		params = append(params, v)
	}
	return params, nil
}

// Strip removes escape sequences from s and replaces invalid UTF-8,
// leaving only the text a terminal would print. It never fails: a
// truncated sequence at the end of a line is dropped. Lines are stripped
// one at a time so an escape cut short by a newline cannot swallow the
// start of the next line.
func Strip(s string) string {
	s = strings.ToValidUTF8(s, string(utf8.RuneError))
	if strings.IndexByte(s, ESC) < 0 {
		return s
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if strings.IndexByte(line, ESC) >= 0 {
			lines[i] = xansi.Strip(line)
		}
	}
	return strings.Join(lines, "\n")
}
