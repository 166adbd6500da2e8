package cfbridge_test

import (
	"github.com/openziti/cfbridge"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestParseEncoding(t *testing.T) {
	for name, expected := range map[string]cfbridge.Encoding{
		"":           cfbridge.UTF8,
		"UTF-8":      cfbridge.UTF8,
		"us-ascii":   cfbridge.ASCII,
		"latin1":     cfbridge.ISOLatin1,
		"macintosh":  cfbridge.MacOSRoman,
		"utf-16be":   cfbridge.UTF16BigEndian,
		"utf-16le":   cfbridge.UTF16LittleEndian,
		"iso-8859-1": cfbridge.ISOLatin1,
	} {
		enc, err := cfbridge.ParseEncoding(name)
		assert.NoError(t, err, name)
		assert.Equal(t, expected, enc, name)
	}
	_, err := cfbridge.ParseEncoding("ebcdic")
	assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument))
}

func TestEncode(t *testing.T) {
	cases := []struct {
		enc      cfbridge.Encoding
		in       string
		expected []byte
	}{
		{cfbridge.UTF8, "é", []byte{0xc3, 0xa9}},
		{cfbridge.ASCII, "ok", []byte("ok")},
		{cfbridge.ISOLatin1, "é", []byte{0xe9}},
		{cfbridge.MacOSRoman, "é", []byte{0x8e}},
		{cfbridge.UTF16BigEndian, "A", []byte{0x00, 0x41}},
		{cfbridge.UTF16LittleEndian, "A", []byte{0x41, 0x00}},
	}
	for _, c := range cases {
		out, err := c.enc.Encode(c.in)
		assert.NoError(t, err, "%s", c.enc)
		assert.Equal(t, c.expected, out, "%s", c.enc)

		back, err := c.enc.Decode(out)
		assert.NoError(t, err, "%s", c.enc)
		assert.Equal(t, c.in, back, "%s", c.enc)
	}
}

func TestNotRepresentable(t *testing.T) {
	_, err := cfbridge.ISOLatin1.Encode("€")
	assert.True(t, errors.Is(err, cfbridge.ErrNotRepresentable))
	_, err = cfbridge.ASCII.Encode("é")
	assert.True(t, errors.Is(err, cfbridge.ErrNotRepresentable))
	_, err = cfbridge.ASCII.Decode([]byte{0x80})
	assert.True(t, errors.Is(err, cfbridge.ErrNotRepresentable))
	_, err = cfbridge.Encoding(99).Encode("x")
	assert.True(t, errors.Is(err, cfbridge.ErrInvalidArgument))
}
