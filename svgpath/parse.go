// Package svgpath tokenizes the SVG path-data mini-language without a DOM.
//
// Parsing is lenient: the command letter set is open (unknown letters are kept
// so callers can approximate them), numbers follow the SVG grammar including
// the compact forms "1-2" and ".5.5", and arc flags may be written without
// separators ("a1 1 0 011 1").
package svgpath

import (
	"fmt"
	"strconv"
)

// Command is one command letter with every argument that followed it.
// Implicit repetitions ("L 1 2 3 4") stay in a single Command.
type Command struct {
	Op   byte
	Args []float64
	Off  int // byte offset of Op in the source text
}

// Relative reports whether the command uses lowercase (relative) coordinates.
func (c Command) Relative() bool { return c.Op >= 'a' && c.Op <= 'z' }

// SyntaxError reports the first byte the tokenizer could not make sense of.
type SyntaxError struct {
	Off int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("svgpath: offset %d: %s", e.Off, e.Msg)
}

// Parse tokenizes d. On a syntax error it returns the commands read so far
// together with a *SyntaxError, so estimators can still work on the prefix.
func Parse(d string) ([]Command, error) {
	s := scanner{src: d}
	var cmds []Command
	for {
		s.skipSeparators()
		if s.done() {
			return cmds, nil
		}
		c := s.peek()
		if !isCommand(c) {
			if len(cmds) == 0 {
				return nil, &SyntaxError{Off: s.pos, Msg: fmt.Sprintf("path must start with a command, found %q", c)}
			}
			return cmds, &SyntaxError{Off: s.pos, Msg: fmt.Sprintf("unexpected %q", c)}
		}
		cmd := Command{Op: c, Off: s.pos}
		s.pos++
		for {
			s.skipSeparators()
			if s.done() || isCommand(s.peek()) {
				break
			}
			var (
				v   float64
				err error
			)
			if cmd.Op|0x20 == 'a' && isFlagSlot(len(cmd.Args)) {
				v, err = s.flag()
			} else {
				v, err = s.number()
			}
			if err != nil {
				cmds = append(cmds, cmd)
				return cmds, err
			}
			cmd.Args = append(cmd.Args, v)
		}
		cmds = append(cmds, cmd)
	}
}

// isFlagSlot reports whether argument n of an arc is large-arc or sweep.
func isFlagSlot(n int) bool {
	i := n % 7
	return i == 3 || i == 4
}

func isCommand(c byte) bool {
	if c == 'e' || c == 'E' {
		return false
	}
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSeparator(c byte) bool {
	return c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }
func (s *scanner) peek() byte { return s.src[s.pos] }

func (s *scanner) skipSeparators() {
	for !s.done() && isSeparator(s.peek()) {
		s.pos++
	}
}

func (s *scanner) flag() (float64, error) {
	switch s.peek() {
	case '0':
		s.pos++
		return 0, nil
	case '1':
		s.pos++
		return 1, nil
	}
	return 0, &SyntaxError{Off: s.pos, Msg: fmt.Sprintf("arc flag must be 0 or 1, found %q", s.peek())}
}

func (s *scanner) number() (float64, error) {
	start := s.pos
	if c := s.peek(); c == '+' || c == '-' {
		s.pos++
	}
	digits := 0
	for !s.done() && isDigit(s.peek()) {
		s.pos++
		digits++
	}
	if !s.done() && s.peek() == '.' {
		s.pos++
		for !s.done() && isDigit(s.peek()) {
			s.pos++
			digits++
		}
	}
	if digits == 0 {
		return 0, &SyntaxError{Off: start, Msg: "malformed number"}
	}
	if !s.done() && (s.peek() == 'e' || s.peek() == 'E') {
		mark := s.pos
		s.pos++
		if !s.done() && (s.peek() == '+' || s.peek() == '-') {
			s.pos++
		}
		exp := 0
		for !s.done() && isDigit(s.peek()) {
			s.pos++
			exp++
		}
		if exp == 0 {
			s.pos = mark
		}
	}
	v, err := strconv.ParseFloat(s.src[start:s.pos], 64)
	if err != nil {
		return 0, &SyntaxError{Off: start, Msg: err.Error()}
	}
	return v, nil
}
