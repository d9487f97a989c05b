package classfile

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var errTruncatedSequence = errors.New("truncated multi-byte sequence")

// decodeModifiedUTF8 accepts standard UTF-8 as well as the class file
// variant, which encodes NUL as C0 80 and supplementary characters as two
// three-byte surrogates. Unpaired surrogates are rejected.
func decodeModifiedUTF8(b []byte) (string, error) {
	if utf8.Valid(b) {
		return string(b), nil
	}

	var sb strings.Builder
	sb.Grow(len(b))
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c < 0x80:
			sb.WriteByte(c)
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || !continuation(b[i+1]) {
				return "", errTruncatedSequence
			}
			sb.WriteRune(rune(c&0x1F)<<6 | rune(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			r, ok := threeByte(b, i)
			if !ok {
				return "", errTruncatedSequence
			}
			switch {
			case r >= 0xD800 && r <= 0xDBFF:
				lo, ok := threeByte(b, i+3)
				if !ok || lo < 0xDC00 || lo > 0xDFFF {
					return "", fmt.Errorf("unpaired high surrogate U+%04X", r)
				}
				sb.WriteRune(0x10000 + (r-0xD800)<<10 + (lo - 0xDC00))
				i += 6
			case r >= 0xDC00 && r <= 0xDFFF:
				return "", fmt.Errorf("unpaired low surrogate U+%04X", r)
			default:
				sb.WriteRune(r)
				i += 3
			}
		default:
			r, size := utf8.DecodeRune(b[i:])
			if r == utf8.RuneError && size <= 1 {
				return "", fmt.Errorf("invalid byte 0x%02X at %d", c, i)
			}
			sb.WriteRune(r)
			i += size
		}
	}
	return sb.String(), nil
}

func continuation(b byte) bool { return b&0xC0 == 0x80 }

func threeByte(b []byte, i int) (rune, bool) {
	if i+2 >= len(b) || b[i]&0xF0 != 0xE0 || !continuation(b[i+1]) || !continuation(b[i+2]) {
		return 0, false
	}
	return rune(b[i]&0x0F)<<12 | rune(b[i+1]&0x3F)<<6 | rune(b[i+2]&0x3F), true
}
