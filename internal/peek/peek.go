// Package peek extracts a small, time-boxed text excerpt from files whose
// names alone carry too little placement signal. Extraction is best-effort:
// every failure mode degrades to "no content" for the caller.
package peek

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

const (
	// maxBytes caps how much of a plain-text file is read.
	maxBytes = 64 * 1024
	// maxChars caps the excerpt handed downstream.
	maxChars = 2000
	// maxParagraphs caps how many leading paragraphs are pulled from a
	// structured document.
	maxParagraphs = 10
	// budget is the wall-clock ceiling for one extraction.
	budget = time.Second
)

// peekable lists the extensions worth opening at all.
var peekable = map[string]bool{
	"txt":  true,
	"docx": true,
}

// Peekable reports whether files with the given (normalized) extension
// support content peeking.
func Peekable(ext string) bool {
	return peekable[ext]
}

type result struct {
	text string
	err  error
}

// Extract reads a bounded excerpt from the file at path. It returns an empty
// string for non-peekable extensions, truncates output to maxChars, and
// abandons the read when the wall-clock budget is exceeded.
func Extract(ctx context.Context, path, ext string) (string, error) {
	if !peekable[ext] {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		text, err := extract(path, ext)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		return truncate(r.text), nil
	case <-ctx.Done():
		return "", fmt.Errorf("content peek abandoned: %w", ctx.Err())
	}
}

func extract(path, ext string) (string, error) {
	switch ext {
	case "txt":
		return extractText(path)
	case "docx":
		return extractDocx(path)
	default:
		return "", nil
	}
}

func extractText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return decode(data), nil
}

// decode recovers text from raw bytes, trying utf-8, utf-16 (BOM), cp1252
// and latin-1 in order, degrading to an empty string.
func decode(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if utf8.Valid(data) {
		return string(data)
	}
	if hasUTF16BOM(data) {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(data); err == nil {
			return string(out)
		}
	}
	if validCP1252(data) {
		if out, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
			return string(out)
		}
	}
	if out, err := charmap.ISO8859_1.NewDecoder().Bytes(data); err == nil {
		return string(out)
	}
	return ""
}

func hasUTF16BOM(data []byte) bool {
	return len(data) >= 2 &&
		((data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF))
}

// validCP1252 rejects data using the five byte values cp1252 leaves
// undefined, so those files fall through to latin-1.
func validCP1252(data []byte) bool {
	for _, b := range data {
		switch b {
		case 0x81, 0x8D, 0x8F, 0x90, 0x9D:
			return false
		}
	}
	return true
}

func extractDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%s contains no word/document.xml", path)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("opening document xml: %w", err)
	}
	defer rc.Close()

	return readParagraphs(rc)
}

// readParagraphs streams the document XML, collecting the text runs of the
// leading paragraphs. Parsing stops as soon as enough paragraphs are seen.
func readParagraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for len(paragraphs) < maxParagraphs {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing document xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(current.String()); s != "" {
					paragraphs = append(paragraphs, s)
				}
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	return string([]rune(s)[:maxChars])
}
