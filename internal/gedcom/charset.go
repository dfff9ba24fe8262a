package gedcom

import (
	"bufio"
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tartampluch/go-gedcheck/internal/config"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// charsetAliases maps the values seen in "1 CHAR" lines to a canonical name.
var charsetAliases = map[string]string{
	"":             config.CharsetUTF8,
	"UTF-8":        config.CharsetUTF8,
	"UTF8":         config.CharsetUTF8,
	"ASCII":        config.CharsetASCII,
	"UNICODE":      config.CharsetUnicode,
	"UTF-16":       config.CharsetUnicode,
	"ANSEL":        config.CharsetANSEL,
	"ANSI":         config.CharsetCP1251,
	"WINDOWS-1251": config.CharsetCP1251,
	"CP1251":       config.CharsetCP1251,
	"IBM866":       config.CharsetCP866,
	"CP866":        config.CharsetCP866,
	"KOI8-R":       config.CharsetKOI8R,
	"KOI8R":        config.CharsetKOI8R,
}

// DetectCharset returns the canonical charset of a GEDCOM file. Byte order
// marks win over the header; without either, UTF-8 is assumed.
func DetectCharset(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return config.CharsetUTF8
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		return config.CharsetUnicode
	case len(data) >= 2 && (data[0] == 0 && data[1] != 0 || data[0] != 0 && data[1] == 0):
		// "0 HEAD" in UTF-16 without a BOM.
		return config.CharsetUnicode
	}

	head := data[:min(len(data), config.CharsetSniffBytes)]
	sc := bufio.NewScanner(bytes.NewReader(head))
	for sc.Scan() {
		l, ok := ParseLine(sc.Text())
		if !ok {
			continue
		}
		if l.Level == 0 && l.Tag != "HEAD" {
			break
		}
		if l.Level == 1 && l.Tag == "CHAR" {
			name := strings.ToUpper(strings.TrimSpace(l.Value))
			if canonical, ok := charsetAliases[name]; ok {
				return canonical
			}
			return name
		}
	}
	return config.CharsetUTF8
}

// Decode converts raw GEDCOM bytes to UTF-8 text and reports the charset it
// used. ANSEL and unknown charsets are passed through unchanged.
func Decode(data []byte) (string, string, error) {
	charset := DetectCharset(data)

	var enc encoding.Encoding
	switch charset {
	case config.CharsetUTF8:
		enc = unicode.UTF8BOM
	case config.CharsetASCII:
		return string(data), charset, nil
	case config.CharsetUnicode:
		enc = unicode.UTF16(utf16Endianness(data), unicode.UseBOM)
	case config.CharsetCP1251:
		enc = charmap.Windows1251
	case config.CharsetCP866:
		enc = charmap.CodePage866
	case config.CharsetKOI8R:
		enc = charmap.KOI8R
	default:
		slog.Warn(config.MsgCharsetPass,
			config.LogKeyComponent, config.CompGedcom,
			config.LogKeyCharset, charset,
		)
		return string(bytes.TrimPrefix(data, bomUTF8)), charset, nil
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", charset, fmt.Errorf("%s: %s: %w", config.ErrDecode, charset, err)
	}

	slog.Debug(config.MsgCharsetDetected,
		config.LogKeyComponent, config.CompGedcom,
		config.LogKeyCharset, charset,
		config.LogKeySizeBytes, len(data),
	)
	return string(out), charset, nil
}

// utf16Endianness guesses the byte order of BOM-less UTF-16 from the
// position of the zero byte in the first code unit.
func utf16Endianness(data []byte) unicode.Endianness {
	if bytes.HasPrefix(data, bomUTF16BE) || len(data) >= 2 && data[0] == 0 && data[1] != 0 {
		return unicode.BigEndian
	}
	return unicode.LittleEndian
}
