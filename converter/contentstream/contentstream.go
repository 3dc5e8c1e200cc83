// Package contentstream parses and serializes PDF page content streams at
// the operation level. Operand tokens keep their source spelling, so
// operations that are not rewritten survive a parse/serialize round trip
// with their original values.
package contentstream

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Operation is one content-stream instruction: an operator preceded by its
// operand tokens. Inline images (BI...EI) carry their entire raw segment in
// Raw and have no operand tokens.
type Operation struct {
	Operator string
	Operands []string
	Raw      []byte
}

// Parse tokenizes a decoded content stream into its operation sequence.
func Parse(data []byte) ([]Operation, error) {
	s := &scanner{data: data}
	var ops []Operation
	var operands []string

	for {
		s.skipSpace()
		if s.eof() {
			break
		}

		start := s.pos
		b := s.peek()
		switch {
		case b == '(':
			tok, err := s.readString()
			if err != nil {
				return nil, err
			}
			operands = append(operands, tok)

		case b == '<':
			tok, err := s.readHexOrDict()
			if err != nil {
				return nil, err
			}
			operands = append(operands, tok)

		case b == '/':
			operands = append(operands, s.readName())

		case b == '[':
			tok, err := s.readArray()
			if err != nil {
				return nil, err
			}
			operands = append(operands, tok)

		case b == '{' || b == '}':
			s.pos++
			operands = append(operands, string(b))

		case b == ')' || b == ']' || b == '>':
			return nil, fmt.Errorf("unexpected %q at offset %d", b, s.pos)

		default:
			tok := s.readRegular()
			if tok == "" {
				return nil, fmt.Errorf("unexpected byte 0x%02x at offset %d", b, s.pos)
			}
			switch {
			case IsNumber(tok) || tok == "true" || tok == "false" || tok == "null":
				operands = append(operands, tok)
			case tok == "BI":
				raw, err := s.captureInlineImage(start)
				if err != nil {
					return nil, err
				}
				ops = append(ops, Operation{Operator: "BI", Raw: raw})
				operands = nil
			default:
				ops = append(ops, Operation{Operator: tok, Operands: operands})
				operands = nil
			}
		}
	}

	// Operands with no trailing operator still belong to the stream.
	if len(operands) > 0 {
		ops = append(ops, Operation{Operands: operands})
	}
	return ops, nil
}

// Serialize rebuilds a content stream from operations, in order. Operand
// tokens are space-joined with the operator appended; operations are
// newline-joined.
func Serialize(ops []Operation) []byte {
	var buf bytes.Buffer
	for i, op := range ops {
		if i > 0 {
			buf.WriteByte('\n')
		}
		if op.Raw != nil {
			buf.Write(op.Raw)
			continue
		}
		for j, operand := range op.Operands {
			if j > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(operand)
		}
		if op.Operator != "" {
			if len(op.Operands) > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(op.Operator)
		}
	}
	return buf.Bytes()
}

// IsNumber reports whether tok is a PDF numeric token.
func IsNumber(tok string) bool {
	if tok == "" {
		return false
	}
	i := 0
	if tok[0] == '+' || tok[0] == '-' {
		i++
	}
	digits, dot := false, false
	for ; i < len(tok); i++ {
		switch {
		case tok[i] >= '0' && tok[i] <= '9':
			digits = true
		case tok[i] == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits
}

// ParseNumber parses a PDF numeric token.
func ParseNumber(tok string) (float64, error) {
	return strconv.ParseFloat(tok, 64)
}

// FormatNumber formats a value as a PDF numeric token using the shortest
// exact decimal representation.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsString reports whether tok is a literal or hex string token.
func IsString(tok string) bool {
	if tok == "" {
		return false
	}
	if tok[0] == '(' {
		return true
	}
	return tok[0] == '<' && !strings.HasPrefix(tok, "<<")
}

// DecodeString returns the character content of a string token. Literal
// string escapes and hex digits are resolved; malformed input decodes as far
// as possible.
func DecodeString(tok string) string {
	if len(tok) < 2 {
		return ""
	}
	if tok[0] == '<' {
		return decodeHexString(tok)
	}
	if tok[0] != '(' {
		return ""
	}

	inner := tok[1 : len(tok)-1]
	var out strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(inner) {
			break
		}
		switch inner[i] {
		case 'n':
			out.WriteByte('\n')
		case 'r':
			out.WriteByte('\r')
		case 't':
			out.WriteByte('\t')
		case 'b':
			out.WriteByte('\b')
		case 'f':
			out.WriteByte('\f')
		case '(', ')', '\\':
			out.WriteByte(inner[i])
		case '\n':
			// Line continuation, emits nothing.
		case '\r':
			if i+1 < len(inner) && inner[i+1] == '\n' {
				i++
			}
		default:
			if inner[i] >= '0' && inner[i] <= '7' {
				val := 0
				for n := 0; n < 3 && i < len(inner) && inner[i] >= '0' && inner[i] <= '7'; n++ {
					val = val*8 + int(inner[i]-'0')
					i++
				}
				i--
				out.WriteByte(byte(val))
			} else {
				out.WriteByte(inner[i])
			}
		}
	}
	return out.String()
}

func decodeHexString(tok string) string {
	var out strings.Builder
	var hi byte
	haveHi := false
	for i := 1; i < len(tok) && tok[i] != '>'; i++ {
		c := tok[i]
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			continue
		}
		if haveHi {
			out.WriteByte(hi<<4 | v)
			haveHi = false
		} else {
			hi = v
			haveHi = true
		}
	}
	if haveHi {
		out.WriteByte(hi << 4)
	}
	return out.String()
}

// StringsInArray returns the string tokens contained in an array token.
func StringsInArray(tok string) []string {
	if len(tok) < 2 || tok[0] != '[' {
		return nil
	}
	s := &scanner{data: []byte(tok[1 : len(tok)-1])}
	var strs []string
	for {
		s.skipSpace()
		if s.eof() {
			return strs
		}
		switch b := s.peek(); {
		case b == '(':
			str, err := s.readString()
			if err != nil {
				return strs
			}
			strs = append(strs, str)
		case b == '<':
			str, err := s.readHexOrDict()
			if err != nil {
				return strs
			}
			if IsString(str) {
				strs = append(strs, str)
			}
		case b == '/':
			s.readName()
		case b == '[':
			if _, err := s.readArray(); err != nil {
				return strs
			}
		default:
			if s.readRegular() == "" {
				s.pos++
			}
		}
	}
}

type scanner struct {
	data []byte
	pos  int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.data)
}

func (s *scanner) peek() byte {
	return s.data[s.pos]
}

func isWhitespace(b byte) bool {
	switch b {
	case 0, '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skipSpace advances past whitespace and comments.
func (s *scanner) skipSpace() {
	for !s.eof() {
		b := s.peek()
		if isWhitespace(b) {
			s.pos++
			continue
		}
		if b == '%' {
			for !s.eof() && s.peek() != '\n' && s.peek() != '\r' {
				s.pos++
			}
			continue
		}
		return
	}
}

// readRegular reads a run of regular characters.
func (s *scanner) readRegular() string {
	start := s.pos
	for !s.eof() && !isWhitespace(s.peek()) && !isDelimiter(s.peek()) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// readName reads a name token including its leading slash.
func (s *scanner) readName() string {
	start := s.pos
	s.pos++ // slash
	for !s.eof() && !isWhitespace(s.peek()) && !isDelimiter(s.peek()) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// readString reads a literal string token, honoring nested parens and
// backslash escapes.
func (s *scanner) readString() (string, error) {
	start := s.pos
	s.pos++ // opening paren
	depth := 1
	for !s.eof() {
		switch s.peek() {
		case '\\':
			s.pos++
			if !s.eof() {
				s.pos++
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				s.pos++
				return string(s.data[start:s.pos]), nil
			}
		}
		s.pos++
	}
	return "", fmt.Errorf("unterminated string at offset %d", start)
}

// readHexOrDict reads either a hex string or a dictionary token.
func (s *scanner) readHexOrDict() (string, error) {
	if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
		return s.readDict()
	}
	start := s.pos
	s.pos++ // opening angle
	for !s.eof() {
		if s.peek() == '>' {
			s.pos++
			return string(s.data[start:s.pos]), nil
		}
		s.pos++
	}
	return "", fmt.Errorf("unterminated hex string at offset %d", start)
}

// readDict reads a dictionary token, honoring nested dictionaries and
// embedded strings.
func (s *scanner) readDict() (string, error) {
	start := s.pos
	s.pos += 2 // <<
	depth := 1
	for !s.eof() {
		switch s.peek() {
		case '(':
			if _, err := s.readString(); err != nil {
				return "", err
			}
			continue
		case '<':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '<' {
				depth++
				s.pos += 2
			} else {
				s.pos++
				for !s.eof() && s.peek() != '>' {
					s.pos++
				}
				if !s.eof() {
					s.pos++
				}
			}
			continue
		case '>':
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '>' {
				depth--
				s.pos += 2
				if depth == 0 {
					return string(s.data[start:s.pos]), nil
				}
				continue
			}
			s.pos++
			continue
		}
		s.pos++
	}
	return "", fmt.Errorf("unterminated dictionary at offset %d", start)
}

// readArray reads an array token, honoring nested arrays, strings and
// dictionaries.
func (s *scanner) readArray() (string, error) {
	start := s.pos
	s.pos++ // opening bracket
	depth := 1
	for !s.eof() {
		switch s.peek() {
		case '(':
			if _, err := s.readString(); err != nil {
				return "", err
			}
			continue
		case '<':
			if _, err := s.readHexOrDict(); err != nil {
				return "", err
			}
			continue
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				s.pos++
				return string(s.data[start:s.pos]), nil
			}
		}
		s.pos++
	}
	return "", fmt.Errorf("unterminated array at offset %d", start)
}

// captureInlineImage consumes an inline image from the BI already read at
// start through the closing EI and returns the raw segment.
func (s *scanner) captureInlineImage(start int) ([]byte, error) {
	// Scan the parameter dictionary until the ID token.
	for {
		s.skipSpace()
		if s.eof() {
			return nil, fmt.Errorf("unterminated inline image at offset %d", start)
		}
		b := s.peek()
		switch {
		case b == '/':
			s.readName()
		case b == '(':
			if _, err := s.readString(); err != nil {
				return nil, err
			}
		case b == '<':
			if _, err := s.readHexOrDict(); err != nil {
				return nil, err
			}
		case b == '[':
			if _, err := s.readArray(); err != nil {
				return nil, err
			}
		default:
			tok := s.readRegular()
			if tok == "" {
				s.pos++
				continue
			}
			if tok == "ID" {
				goto imageData
			}
		}
	}

imageData:
	// One whitespace byte separates ID from the image bytes.
	if !s.eof() && isWhitespace(s.peek()) {
		s.pos++
	}
	for i := s.pos; i+1 < len(s.data); i++ {
		if s.data[i] != 'E' || s.data[i+1] != 'I' {
			continue
		}
		if i > 0 && !isWhitespace(s.data[i-1]) {
			continue
		}
		if i+2 < len(s.data) && !isWhitespace(s.data[i+2]) && !isDelimiter(s.data[i+2]) {
			continue
		}
		s.pos = i + 2
		return s.data[start:s.pos], nil
	}
	return nil, fmt.Errorf("unterminated inline image at offset %d", start)
}
