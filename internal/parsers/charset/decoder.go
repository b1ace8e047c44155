package charset

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding detects the encoding of a byte buffer.
// Spreadsheet exports from Windows POS systems are frequently Windows-1252;
// anything that validates as UTF-8 is treated as UTF-8.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) {
		return EncodingUTF8
	}
	if utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// Decode converts a byte buffer from the specified encoding to a UTF-8
// string. A UTF-8 BOM is stripped. If data already validates as UTF-8 it is
// returned as-is regardless of the requested encoding, which prevents
// double-decoding when a caller guesses the encoding wrong.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return string(data), nil
	}

	switch enc {
	case EncodingISO88591:
		return decodeCharmap(data, charmap.ISO8859_1)
	default:
		return decodeCharmap(data, charmap.Windows1252)
	}
}

func decodeCharmap(data []byte, cm *charmap.Charmap) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), cm.NewDecoder())
	result, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// ToUTF8Reader wraps a reader with a decoder to convert to UTF-8
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	var decoder encoding.Encoding

	switch enc {
	case EncodingWindows1252:
		decoder = charmap.Windows1252
	case EncodingISO88591:
		decoder = charmap.ISO8859_1
	default:
		return r, nil
	}

	return transform.NewReader(r, decoder.NewDecoder()), nil
}
