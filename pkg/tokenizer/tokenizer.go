// Package tokenizer splits text streams into normalized word tokens.
package tokenizer

import (
	"bufio"
	"io"
	"iter"
)

// MaxTokenSize is the longest token the scanner accepts before failing with
// bufio.ErrTooLong.
const MaxTokenSize = 1 << 20

// Tokenizer yields lower-cased, whitespace-delimited tokens from a reader.
// It is lazy and single-use: once Next returns false the stream is drained.
type Tokenizer struct {
	scanner *bufio.Scanner
	token   string
}

func New(r io.Reader) *Tokenizer {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), MaxTokenSize)
	s.Split(bufio.ScanWords)
	return &Tokenizer{scanner: s}
}

// Next advances to the next token. It returns false at end of input or on a
// read error; call Err to tell the two apart.
func (t *Tokenizer) Next() bool {
	if !t.scanner.Scan() {
		t.token = ""
		return false
	}
	t.token = LowerASCII(t.scanner.Text())
	return true
}

// Token returns the current normalized token.
func (t *Tokenizer) Token() string {
	return t.token
}

// Err returns the first non-EOF error hit by the underlying reader.
func (t *Tokenizer) Err() error {
	return t.scanner.Err()
}

// Tokens ranges over every token in r. A read error is yielded once, with an
// empty token, as the final element.
func Tokens(r io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		t := New(r)
		for t.Next() {
			if !yield(t.Token(), nil) {
				return
			}
		}
		if err := t.Err(); err != nil {
			yield("", err)
		}
	}
}

// LowerASCII folds A-Z to a-z byte by byte. Other bytes, including multi-byte
// UTF-8 sequences, are left as they are.
func LowerASCII(s string) string {
	i := 0
	for ; i < len(s); i++ {
		if c := s[i]; 'A' <= c && c <= 'Z' {
			break
		}
	}
	if i == len(s) {
		return s
	}

	b := []byte(s)
	for ; i < len(b); i++ {
		if c := b[i]; 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
