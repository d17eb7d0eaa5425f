package memory

import (
	"testing"

	"kiwi/internal/cartridge"
)

func TestPPUMemory_PatternTablesShouldUseCartridge(t *testing.T) {
	cart := &mockCartridge{}
	pm := NewPPUMemory(cart)

	pm.Write(0x1234, 0x56)
	if cart.chr[0x1234] != 0x56 {
		t.Error("Expected CHR write through cartridge")
	}
	if pm.Read(0x1234) != 0x56 {
		t.Error("Expected CHR read through cartridge")
	}
}

func TestPPUMemory_NametableMirroring(t *testing.T) {
	tests := []struct {
		mode cartridge.MirrorMode
		// physical table for logical tables 0-3
		tables [4]uint16
	}{
		{cartridge.MirrorHorizontal, [4]uint16{0, 0, 1, 1}},
		{cartridge.MirrorVertical, [4]uint16{0, 1, 0, 1}},
		{cartridge.MirrorSingleScreenLower, [4]uint16{0, 0, 0, 0}},
		{cartridge.MirrorSingleScreenUpper, [4]uint16{1, 1, 1, 1}},
		{cartridge.MirrorFourScreen, [4]uint16{0, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			pm := NewPPUMemory(&mockCartridge{mirror: tt.mode})
			for table := uint16(0); table < 4; table++ {
				pm.Write(0x2000+table*0x400+5, uint8(table+1))
				if got := pm.vram[tt.tables[table]*0x400+5]; got != uint8(table+1) {
					t.Errorf("Table %d: expected write to physical table %d", table, tt.tables[table])
				}
			}
		})
	}
}

func TestPPUMemory_MirroringFollowsCartridge(t *testing.T) {
	cart := &mockCartridge{mirror: cartridge.MirrorVertical}
	pm := NewPPUMemory(cart)
	pm.Write(0x2400, 0x11)

	cart.mirror = cartridge.MirrorSingleScreenUpper
	if pm.Read(0x2000) != 0x11 {
		t.Error("Expected mirroring to be re-evaluated on each access")
	}
}

func TestPPUMemory_3000ShouldMirror2000(t *testing.T) {
	pm := NewPPUMemory(&mockCartridge{})
	pm.Write(0x2123, 0x42)
	if pm.Read(0x3123) != 0x42 {
		t.Error("Expected 0x3123 to mirror 0x2123")
	}
}

func TestPPUMemory_PaletteMirroring(t *testing.T) {
	pm := NewPPUMemory(&mockCartridge{})

	for _, pair := range [][2]uint16{{0x3F10, 0x3F00}, {0x3F14, 0x3F04}, {0x3F18, 0x3F08}, {0x3F1C, 0x3F0C}} {
		pm.Write(pair[0], 0x21)
		if pm.Read(pair[1]) != 0x21 {
			t.Errorf("Expected 0x%04X to alias 0x%04X", pair[0], pair[1])
		}
	}

	pm.Write(0x3F11, 0x05)
	if pm.Read(0x3F01) == 0x05 {
		t.Error("0x3F11 should not alias 0x3F01")
	}

	pm.Write(0x3F02, 0x16)
	if pm.Read(0x3FE2) != 0x16 {
		t.Error("Expected palette to repeat every 32 bytes")
	}

	pm.Write(0x3F03, 0xFF)
	if pm.Read(0x3F03) != 0x3F {
		t.Error("Palette entries are 6 bits")
	}
}

func TestPPUMemory_NilCartridge(t *testing.T) {
	pm := NewPPUMemory(nil)
	pm.Write(0x0000, 0x12)
	if pm.Read(0x0000) != 0 {
		t.Error("Expected 0 for pattern reads without cartridge")
	}
	pm.Write(0x2800, 0x34)
	if pm.Read(0x2C00) != 0x34 {
		t.Error("Expected horizontal mirroring without cartridge")
	}
}

func TestPPUMemory_Snapshot(t *testing.T) {
	pm := NewPPUMemory(&mockCartridge{})
	pm.Write(0x2001, 0x09)
	pm.Write(0x3F01, 0x2A)

	other := NewPPUMemory(&mockCartridge{})
	other.SetVRAM(pm.VRAM())
	other.SetPalette(pm.Palette())
	if other.Read(0x2001) != 0x09 || other.Read(0x3F01) != 0x2A {
		t.Error("Expected VRAM and palette restored")
	}
}
