// Package attachment resolves file paths handed to the prompt input. Image
// files are kept as references to persist on the message; text files are
// read and transcoded to UTF-8 so their content can be inlined.
package attachment

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type Type int

const (
	TypeImage Type = iota
	TypeText
)

type Attachment struct {
	Path string
	Name string
	Type Type

	// Content is the UTF-8 body of a text attachment; empty for images.
	Content string

	// Encoding names the source encoding a text attachment was decoded from.
	Encoding string
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

const maxTextSize = 1 << 20 // 1 MiB

// IsImage reports whether the path looks like an image by extension.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Load classifies and reads the file at path. Images are not read; their
// path is the reference stored on the message.
func Load(path string) (*Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat attachment: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("attachment %s is a directory", path)
	}

	att := &Attachment{
		Path: path,
		Name: filepath.Base(path),
	}

	if IsImage(path) {
		att.Type = TypeImage
		return att, nil
	}

	if info.Size() > maxTextSize {
		return nil, fmt.Errorf("attachment %s is too large (%d bytes)", path, info.Size())
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}

	content, enc := decodeText(raw)
	att.Type = TypeText
	att.Content = content
	att.Encoding = enc
	return att, nil
}

// decodeText converts raw bytes to UTF-8, detecting the source encoding from
// BOMs first, then by content.
func decodeText(data []byte) (string, string) {
	// UTF-8 BOM
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return string(data[3:]), "UTF-8-BOM"
	}

	// UTF-16 BOMs
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			if content, err := decodeWith(data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)); err == nil {
				return content, "UTF-16LE"
			}
		}
		if data[0] == 0xFE && data[1] == 0xFF {
			if content, err := decodeWith(data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM)); err == nil {
				return content, "UTF-16BE"
			}
		}
	}

	if utf8.Valid(data) {
		return string(data), "UTF-8"
	}

	// Windows-1251 for text that decodes to mostly Cyrillic letters
	if content, err := decodeWith(data, charmap.Windows1251); err == nil {
		if looksCyrillic(content) {
			return content, "Windows-1251"
		}
	}

	if content, err := decodeWith(data, charmap.Windows1252); err == nil {
		return content, "Windows-1252"
	}

	// ISO-8859-1 maps every byte, so this cannot fail
	content, _ := decodeWith(data, charmap.ISO8859_1)
	return content, "ISO-8859-1"
}

func decodeWith(data []byte, enc encoding.Encoding) (string, error) {
	reader := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// looksCyrillic reports whether more than a third of the letters in text are
// Cyrillic.
func looksCyrillic(text string) bool {
	cyrillic, letters := 0, 0
	for _, r := range text {
		isLatin := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z')
		isCyr := r >= 0x0400 && r <= 0x04FF
		if isLatin || isCyr {
			letters++
			if isCyr {
				cyrillic++
			}
		}
	}
	return letters > 10 && cyrillic > letters/3
}
