package cartridge

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromBytes_ShouldParseHeader(t *testing.T) {
	data := BuildINES(ROMImage{
		PRG:      []uint8{0xEA},
		CHR:      make([]uint8, chrBankSize),
		Vertical: true,
		Battery:  true,
	})

	cart, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cart.MapperID() != 0 {
		t.Errorf("Expected mapper 0, got %d", cart.MapperID())
	}
	if cart.Mirroring() != MirrorVertical {
		t.Errorf("Expected vertical mirroring, got %s", cart.Mirroring())
	}
	if !cart.HasBattery() {
		t.Error("Expected battery flag to be set")
	}
	if cart.HasCHRRAM() {
		t.Error("Expected CHR ROM, got CHR RAM")
	}
	if cart.PRGSize() != prgBankSize || cart.CHRSize() != chrBankSize {
		t.Errorf("Unexpected sizes PRG=%d CHR=%d", cart.PRGSize(), cart.CHRSize())
	}
}

func TestLoadFromBytes_ShouldDetectNES20(t *testing.T) {
	data := BuildINES(ROMImage{PRG: []uint8{0xEA}, CHR: make([]uint8, chrBankSize)})
	cart, err := LoadFromBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if cart.IsNES20() {
		t.Error("Expected plain iNES header")
	}

	data[7] |= 0x08
	cart, err = LoadFromBytes(data)
	if err != nil {
		t.Fatal(err)
	}
	if !cart.IsNES20() {
		t.Error("Expected NES 2.0 header")
	}
}

func TestLoadFromBytes_MirroringFlags(t *testing.T) {
	tests := []struct {
		name       string
		vertical   bool
		fourScreen bool
		want       MirrorMode
	}{
		{"horizontal", false, false, MirrorHorizontal},
		{"vertical", true, false, MirrorVertical},
		{"four-screen overrides vertical", true, true, MirrorFourScreen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart, err := LoadFromBytes(BuildINES(ROMImage{Vertical: tt.vertical, FourScreen: tt.fourScreen}))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cart.Mirroring() != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, cart.Mirroring())
			}
		})
	}
}

func TestLoadFromBytes_ShouldSkipTrainer(t *testing.T) {
	data := BuildINES(ROMImage{PRG: []uint8{0x42}, Trainer: true})
	cart, err := LoadFromBytes(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v := cart.ReadPRG(0x8000); v != 0x42 {
		t.Errorf("Expected first PRG byte 0x42 after trainer, got 0x%02X", v)
	}
}

func TestLoadFromBytes_Errors(t *testing.T) {
	valid := BuildINES(ROMImage{})

	badMagic := append([]uint8{}, valid...)
	badMagic[0] = 'X'

	emptyPRG := append([]uint8{}, valid...)
	emptyPRG[4] = 0

	unsupported := BuildINES(ROMImage{Mapper: 4})

	tests := []struct {
		name string
		data []uint8
		want error
	}{
		{"short header", valid[:8], ErrInvalidHeader},
		{"bad magic", badMagic, ErrInvalidHeader},
		{"empty PRG", emptyPRG, ErrEmptyPRG},
		{"truncated PRG", valid[:headerSize+100], ErrTruncated},
		{"unsupported mapper", unsupported, ErrUnsupportedMapper},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFromBytes_ZeroCHRShouldAllocateCHRRAM(t *testing.T) {
	cart, err := LoadFromBytes(BuildINES(ROMImage{}))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !cart.HasCHRRAM() {
		t.Fatal("Expected CHR RAM")
	}
	cart.WriteCHR(0x1234, 0x99)
	if v := cart.ReadCHR(0x1234); v != 0x99 {
		t.Errorf("Expected CHR RAM write to stick, got 0x%02X", v)
	}
	if ram := cart.CHRRAM(); len(ram) != chrBankSize || ram[0x1234] != 0x99 {
		t.Error("CHRRAM copy does not reflect contents")
	}
}

func TestLoadFromFile_ShouldReadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.nes")
	if err := os.WriteFile(path, BuildINES(ROMImage{PRG: []uint8{0x11}}), 0644); err != nil {
		t.Fatal(err)
	}
	cart, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cart.ReadPRG(0x8000) != 0x11 {
		t.Error("PRG not loaded from file")
	}

	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.nes")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCRC32_ShouldIdentifyContents(t *testing.T) {
	a, _ := LoadFromBytes(BuildINES(ROMImage{PRG: []uint8{1}}))
	b, _ := LoadFromBytes(BuildINES(ROMImage{PRG: []uint8{1}}))
	c, _ := LoadFromBytes(BuildINES(ROMImage{PRG: []uint8{2}}))

	if a.CRC32() != b.CRC32() {
		t.Error("Expected identical images to share a CRC")
	}
	if a.CRC32() == c.CRC32() {
		t.Error("Expected different images to have different CRCs")
	}
}

func TestSRAM_ShouldRoundTrip(t *testing.T) {
	cart, _ := LoadFromBytes(BuildINES(ROMImage{Battery: true}))
	cart.WritePRG(0x6000, 0xAB)
	cart.WritePRG(0x7FFF, 0xCD)

	saved := cart.SRAM()
	if saved[0] != 0xAB || saved[sramSize-1] != 0xCD {
		t.Fatalf("SRAM copy missing writes")
	}

	other, _ := LoadFromBytes(BuildINES(ROMImage{Battery: true}))
	other.SetSRAM(saved)
	if other.ReadPRG(0x6000) != 0xAB || other.ReadPRG(0x7FFF) != 0xCD {
		t.Error("SetSRAM did not restore contents")
	}
}

func TestBuildINES_ShouldWriteVectors(t *testing.T) {
	cart, err := LoadFromBytes(BuildINES(ROMImage{NMI: 0x8010, Reset: 0x8020, IRQ: 0x8030}))
	if err != nil {
		t.Fatal(err)
	}
	read16 := func(addr uint16) uint16 {
		return uint16(cart.ReadPRG(addr)) | uint16(cart.ReadPRG(addr+1))<<8
	}
	if read16(0xFFFA) != 0x8010 || read16(0xFFFC) != 0x8020 || read16(0xFFFE) != 0x8030 {
		t.Errorf("Unexpected vectors %04X %04X %04X", read16(0xFFFA), read16(0xFFFC), read16(0xFFFE))
	}
}
