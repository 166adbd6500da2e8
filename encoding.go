package cfbridge

import (
	"fmt"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"strings"
)

// Encoding is a text encoding used when converting between strings and native data.
type Encoding uint8

const (
	UTF8 Encoding = iota
	ASCII
	ISOLatin1
	MacOSRoman
	UTF16BigEndian
	UTF16LittleEndian
)

const DefaultEncoding = UTF8

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case ASCII:
		return "ascii"
	case ISOLatin1:
		return "iso-8859-1"
	case MacOSRoman:
		return "macintosh"
	case UTF16BigEndian:
		return "utf-16be"
	case UTF16LittleEndian:
		return "utf-16le"
	default:
		return fmt.Sprintf("Encoding(%d)", uint8(e))
	}
}

func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "ascii", "us-ascii":
		return ASCII, nil
	case "iso-8859-1", "latin1":
		return ISOLatin1, nil
	case "macintosh", "macroman":
		return MacOSRoman, nil
	case "utf-16be":
		return UTF16BigEndian, nil
	case "utf-16le":
		return UTF16LittleEndian, nil
	default:
		return UTF8, errors.Wrapf(ErrInvalidArgument, "unknown encoding '%s'", name)
	}
}

func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case UTF8:
		return unicode.UTF8, nil
	case ISOLatin1:
		return charmap.ISO8859_1, nil
	case MacOSRoman:
		return charmap.Macintosh, nil
	case UTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case UTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	default:
		return nil, errors.Wrapf(ErrInvalidArgument, "unsupported encoding [%s]", e)
	}
}

// Encode converts s into bytes in encoding e.
func (e Encoding) Encode(s string) ([]byte, error) {
	if e == ASCII {
		for i := 0; i < len(s); i++ {
			if s[i] > 0x7f {
				return nil, errors.Wrapf(ErrNotRepresentable, "byte [%d] of string as [%s]", i, e)
			}
		}
		return []byte(s), nil
	}
	codec, err := e.codec()
	if err != nil {
		return nil, err
	}
	out, err := codec.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrapf(ErrNotRepresentable, "string as [%s] (%v)", e, err)
	}
	return out, nil
}

// Decode converts bytes in encoding e into a string.
func (e Encoding) Decode(data []byte) (string, error) {
	if e == ASCII {
		for i, b := range data {
			if b > 0x7f {
				return "", errors.Wrapf(ErrNotRepresentable, "byte [%d] of data as [%s]", i, e)
			}
		}
		return string(data), nil
	}
	codec, err := e.codec()
	if err != nil {
		return "", err
	}
	out, err := codec.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Wrapf(ErrNotRepresentable, "data as [%s] (%v)", e, err)
	}
	return string(out), nil
}
