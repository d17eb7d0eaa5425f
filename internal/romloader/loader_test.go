package romloader

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

var testROM = append([]byte("NES\x1A\x01\x01"), make([]byte, 64)...)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write(data)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write(data)
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestLoad_RawROM(t *testing.T) {
	path := writeFile(t, "game.nes", testROM)

	data, name, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(data, testROM) {
		t.Error("ROM data mismatch")
	}
	if name != "game.nes" {
		t.Errorf("Expected name game.nes, got %s", name)
	}
}

func TestLoad_RawROMDetectedByMagic(t *testing.T) {
	path := writeFile(t, "game.bin", testROM)

	if _, _, err := Load(path, nil); err != nil {
		t.Fatalf("Expected iNES magic to be recognised, got %v", err)
	}
}

func TestLoad_ZipArchive(t *testing.T) {
	path := writeFile(t, "game.zip", zipBytes(t, map[string][]byte{
		"readme.txt":       []byte("hello"),
		"roms/Game (U).NES": testROM,
	}))

	data, name, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(data, testROM) {
		t.Error("ROM data mismatch")
	}
	if name != "Game (U).NES" {
		t.Errorf("Expected base name of entry, got %q", name)
	}
}

// testdata/game.7z and game.rar hold readme.txt, then game.nes (testROM),
// then other.nes. The 7z keeps the ROMs under roms/.
func TestLoad_7zAndRARArchives(t *testing.T) {
	for _, file := range []string{"game.7z", "game.rar"} {
		t.Run(file, func(t *testing.T) {
			path := filepath.Join("testdata", file)

			data, name, err := Load(path, nil)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if name != "game.nes" {
				t.Errorf("Expected first ROM entry game.nes, got %q", name)
			}
			if !bytes.Equal(data, testROM) {
				t.Errorf("ROM data mismatch: % X", data[:8])
			}

			data, name, err = Load(path, []string{".txt"})
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if name != "readme.txt" || string(data) != "read me first\n" {
				t.Errorf("Expected readme.txt, got %q %q", name, data)
			}

			if _, _, err := Load(path, []string{".fds"}); !errors.Is(err, ErrNoROMFile) {
				t.Errorf("Expected ErrNoROMFile, got %v", err)
			}
		})
	}
}

func TestLoad_ZipWithoutROM(t *testing.T) {
	path := writeFile(t, "docs.zip", zipBytes(t, map[string][]byte{"readme.txt": []byte("hello")}))

	_, _, err := Load(path, nil)
	if !errors.Is(err, ErrNoROMFile) {
		t.Errorf("Expected ErrNoROMFile, got %v", err)
	}
}

func TestLoad_GzipFile(t *testing.T) {
	path := writeFile(t, "game.nes.gz", gzipBytes(t, testROM))

	data, name, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(data, testROM) {
		t.Error("ROM data mismatch")
	}
	if name != "game.nes" {
		t.Errorf("Expected .gz suffix to be stripped, got %s", name)
	}
}

func TestLoad_TarGz(t *testing.T) {
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	tw.WriteHeader(&tar.Header{Name: "dir/game.nes", Mode: 0644, Size: int64(len(testROM)), Typeflag: tar.TypeReg})
	tw.Write(testROM)
	tw.Close()

	path := writeFile(t, "pack.tar.gz", gzipBytes(t, tarBuf.Bytes()))

	data, name, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !bytes.Equal(data, testROM) || name != "game.nes" {
		t.Errorf("Unexpected result %q, %d bytes", name, len(data))
	}
}

func TestLoad_FileTooLarge(t *testing.T) {
	path := writeFile(t, "huge.nes", make([]byte, maxROMSize+1))

	_, _, err := Load(path, nil)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got %v", err)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("plain text"))

	_, _, err := Load(path, nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.nes"), nil); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoad_InvalidArchives(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"7z magic without body", "broken.7z", []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C, 0, 0}},
		{"rar magic without body", "broken.rar", []byte("Rar!\x1A\x07\x00")},
		{"7z by extension", "fake.7z", []byte("not a 7z file")},
		{"rar by extension", "fake.rar", []byte("not a rar file")},
		{"empty gzip", "empty.gz", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)
			if _, _, err := Load(path, nil); err == nil {
				t.Error("Expected error for corrupt archive")
			}
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		header []byte
		path   string
		want   Format
	}{
		{[]byte("NES\x1A"), "x.bin", FormatRaw},
		{[]byte{0x50, 0x4B, 0x03, 0x04}, "x.nes", FormatZIP},
		{[]byte("Rar!"), "x", FormatRAR},
		{[]byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}, "x", Format7z},
		{[]byte{0x1F, 0x8B}, "x", FormatGzip},
		{nil, "x.TAR.GZ", FormatGzip},
		{nil, "x.7z", Format7z},
		{nil, "x.Nes", FormatRaw},
		{nil, "x.txt", FormatUnknown},
	}

	for _, tt := range tests {
		if got := detectFormat(tt.header, tt.path, DefaultExtensions); got != tt.want {
			t.Errorf("detectFormat(%v, %q) = %s, expected %s", tt.header, tt.path, got, tt.want)
		}
	}
}
