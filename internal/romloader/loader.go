// Package romloader reads NES ROM images from disk. Images may be stored raw
// or inside ZIP, 7z, gzip, tar.gz or RAR archives.
package romloader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the file extensions accepted as NES ROM images
var DefaultExtensions = []string{".nes"}

// maxROMSize is the largest image that will be read
const maxROMSize = 8 * 1024 * 1024

var (
	ErrNoROMFile         = errors.New("no ROM file found in archive")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file exceeds maximum size limit")
)

// Format is the container a ROM was found in
type Format int

const (
	FormatUnknown Format = iota
	FormatRaw
	FormatZIP
	Format7z
	FormatGzip
	FormatRAR
)

func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatZIP:
		return "zip"
	case Format7z:
		return "7z"
	case FormatGzip:
		return "gzip"
	case FormatRAR:
		return "rar"
	}
	return "unknown"
}

type signature struct {
	magic  []byte
	format Format
}

// checked in order against the first bytes of the file
var signatures = []signature{
	{[]byte("NES\x1A"), FormatRaw},
	{[]byte{0x50, 0x4B, 0x03, 0x04}, FormatZIP},
	{[]byte{0x50, 0x4B, 0x05, 0x06}, FormatZIP},
	{[]byte("Rar!"), FormatRAR},
	{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, Format7z},
	{[]byte{0x1F, 0x8B}, FormatGzip},
}

var archiveExtensions = map[string]Format{
	".zip": FormatZIP,
	".7z":  Format7z,
	".gz":  FormatGzip,
	".tgz": FormatGzip,
	".rar": FormatRAR,
}

type extractor func(path string, extensions []string) ([]byte, string, error)

var extractors = map[Format]extractor{
	FormatZIP:  extractZIP,
	Format7z:   extract7z,
	FormatGzip: extractGzip,
	FormatRAR:  extractRAR,
}

// Load reads the ROM at path. Archives are opened and the first entry whose
// name ends in one of extensions is returned. The returned name is the base
// name of the file the data came from.
func Load(path string, extensions []string) ([]byte, string, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	format, err := Detect(path, extensions)
	if err != nil {
		return nil, "", err
	}

	if format == FormatRaw {
		f, err := os.Open(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()

		data, err := limitedRead(f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read ROM: %w", err)
		}
		return data, filepath.Base(path), nil
	}

	if extract, ok := extractors[format]; ok {
		return extract(path, extensions)
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// Detect reports the container format of the file at path
func Detect(path string, extensions []string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, fmt.Errorf("failed to read file header: %w", err)
	}

	return detectFormat(header[:n], path, extensions), nil
}

// detectFormat prefers magic bytes and falls back to the file extension
func detectFormat(header []byte, path string, extensions []string) Format {
	for _, s := range signatures {
		if bytes.HasPrefix(header, s.magic) {
			return s.format
		}
	}

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".tar.gz") {
		return FormatGzip
	}
	ext := filepath.Ext(lower)
	if f, ok := archiveExtensions[ext]; ok {
		return f
	}
	if isROMFile(lower, extensions) {
		return FormatRaw
	}
	return FormatUnknown
}

func isROMFile(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// limitedRead reads all of r, failing once maxROMSize is exceeded
func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxROMSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxROMSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
