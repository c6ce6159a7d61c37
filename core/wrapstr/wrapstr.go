// Package wrapstr implements the wrappable string: an ordered sequence of
// text fragments that carries formatting hints for later rendering, and
// knows how to fit itself into lines of a given width without splitting a
// fragment across a line break.
package wrapstr

import (
	"strings"
	"unicode/utf8"
)

// ansiEscapeStart is the prefix that opens an ANSI CSI escape sequence,
// so that width measurement can recognize and ignore the sequence.
const ansiEscapeStart = "\x1b["

// String is an immutable ordered sequence of text fragments.
type String struct {
	fragments []string
}

// New builds a String from one or more fragments. A single plain string is
// the common case; multiple fragments let a caller mark independent
// formatting runs (e.g., a flag name fragment followed by a description
// fragment) while keeping them joinable on a single line.
func New(fragments ...string) String {
	out := make([]string, len(fragments))
	copy(out, fragments)
	return String{fragments: out}
}

// Fragments returns a copy of the underlying fragment sequence.
func (s String) Fragments() []string {
	out := make([]string, len(s.fragments))
	copy(out, s.fragments)
	return out
}

// IsEmpty reports whether the string has zero length once rendered.
func (s String) IsEmpty() bool {
	return s.Len() == 0
}

// String renders all fragments concatenated with no separator, matching
// the semantics of joining the fragments as a single logical string.
func (s String) String() string {
	return strings.Join(s.fragments, "")
}

// Len returns the rendered string's length, measured in runes with ANSI
// escape sequences excluded.
func (s String) Len() int {
	return displayWidth(s.String())
}

// Equal compares two wrappable strings by rendered content.
func (s String) Equal(other String) bool {
	return s.String() == other.String()
}

// displayWidth returns the rune width of s, skipping ANSI CSI escapes.
func displayWidth(s string) int {
	width := 0
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], ansiEscapeStart) {
			j := i + len(ansiEscapeStart)
			for j < len(s) && !isCSIFinal(s[j]) {
				j++
			}
			if j < len(s) {
				j++ // consume the final byte
			}
			i = j
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			i++
			width++
			continue
		}
		i += size
		width++
	}
	return width
}

func isCSIFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7e
}

// word is a single non-breaking unit: either a whole fragment (fragment
// boundaries never break) or a whitespace-delimited chunk of one.
type word struct {
	text  string
	width int
}

// Wrap fits the string into lines: the first line is wrapped to width
// firstWidth, every subsequent line to width restWidth. Fragment
// boundaries are never break points; inter-fragment (and intra-fragment)
// whitespace is. ANSI escapes are ignored when measuring width.
func (s String) Wrap(firstWidth, restWidth int) []string {
	words := splitWords(s.fragments)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	var cur []string
	curWidth := 0
	width := firstWidth
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, strings.Join(cur, " "))
		}
		cur = nil
		curWidth = 0
		width = restWidth
	}
	for _, w := range words {
		sep := 0
		if len(cur) > 0 {
			sep = 1
		}
		if len(cur) > 0 && curWidth+sep+w.width > width {
			flush()
			sep = 0
		}
		cur = append(cur, w.text)
		curWidth += sep + w.width
	}
	flush()
	return lines
}

// splitWords turns a fragment sequence into whitespace-delimited words,
// never splitting within a fragment's non-whitespace runs across a
// fragment boundary: a fragment that starts or ends mid-word is glued to
// its neighbor.
func splitWords(fragments []string) []word {
	var words []word
	var carry string
	for idx, frag := range fragments {
		if frag == "" {
			continue
		}
		parts := strings.Fields(frag)
		startsWithSpace := len(frag) > 0 && isSpace(frag[0])
		endsWithSpace := len(frag) > 0 && isSpace(frag[len(frag)-1])
		if len(parts) == 0 {
			// Fragment is pure whitespace; it only terminates any carry.
			if carry != "" {
				words = append(words, word{text: carry, width: displayWidth(carry)})
				carry = ""
			}
			continue
		}
		if !startsWithSpace && carry != "" {
			parts[0] = carry + parts[0]
			carry = ""
		} else if carry != "" {
			words = append(words, word{text: carry, width: displayWidth(carry)})
			carry = ""
		}
		last := len(parts) - 1
		for i := 0; i < last; i++ {
			words = append(words, word{text: parts[i], width: displayWidth(parts[i])})
		}
		if endsWithSpace || idx == len(fragments)-1 {
			words = append(words, word{text: parts[last], width: displayWidth(parts[last])})
		} else {
			carry = parts[last]
		}
	}
	if carry != "" {
		words = append(words, word{text: carry, width: displayWidth(carry)})
	}
	return words
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
