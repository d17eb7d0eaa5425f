package cartridge

import "testing"

func TestMapper000_ShouldMirror16KBPRG(t *testing.T) {
	prg := make([]uint8, prgBankSize)
	prg[0] = 0x11
	prg[0x3FFF] = 0x22
	cart, err := LoadFromBytes(BuildINES(ROMImage{PRG: prg}))
	if err != nil {
		t.Fatal(err)
	}

	if cart.ReadPRG(0x8000) != 0x11 || cart.ReadPRG(0xC000) != 0x11 {
		t.Error("Expected 0x8000 and 0xC000 to mirror")
	}
	if cart.ReadPRG(0xBFFF) != 0x22 || cart.ReadPRG(0xFFFF) != 0x22 {
		t.Error("Expected 0xBFFF and 0xFFFF to mirror")
	}
}

func TestMapper000_ShouldNotMirror32KBPRG(t *testing.T) {
	prg := make([]uint8, 2*prgBankSize)
	prg[0] = 0x11
	prg[prgBankSize] = 0x33
	cart, _ := LoadFromBytes(BuildINES(ROMImage{PRG: prg}))

	if cart.ReadPRG(0x8000) != 0x11 {
		t.Errorf("Expected 0x11, got 0x%02X", cart.ReadPRG(0x8000))
	}
	if cart.ReadPRG(0xC000) != 0x33 {
		t.Errorf("Expected 0x33, got 0x%02X", cart.ReadPRG(0xC000))
	}
}

func TestMapper000_ShouldIgnoreROMWrites(t *testing.T) {
	chr := make([]uint8, chrBankSize)
	chr[5] = 0x77
	cart, _ := LoadFromBytes(BuildINES(ROMImage{PRG: []uint8{0x11}, CHR: chr}))

	cart.WritePRG(0x8000, 0xFF)
	cart.WriteCHR(0x0005, 0xFF)

	if cart.ReadPRG(0x8000) != 0x11 {
		t.Error("PRG ROM should be read-only")
	}
	if cart.ReadCHR(0x0005) != 0x77 {
		t.Error("CHR ROM should be read-only")
	}
}

func TestMapper002_ShouldSwitchLowerBank(t *testing.T) {
	prg := make([]uint8, 4*prgBankSize)
	for bank := 0; bank < 4; bank++ {
		prg[bank*prgBankSize] = uint8(bank + 1)
	}
	cart, err := LoadFromBytes(BuildINES(ROMImage{PRG: prg, Mapper: 2}))
	if err != nil {
		t.Fatal(err)
	}

	if cart.ReadPRG(0x8000) != 1 {
		t.Errorf("Expected bank 0 at power-up, got %d", cart.ReadPRG(0x8000))
	}
	if cart.ReadPRG(0xC000) != 4 {
		t.Errorf("Expected last bank fixed at 0xC000, got %d", cart.ReadPRG(0xC000))
	}

	cart.WritePRG(0x8000, 2)
	if cart.ReadPRG(0x8000) != 3 {
		t.Errorf("Expected bank 2 after switch, got %d", cart.ReadPRG(0x8000))
	}
	if cart.ReadPRG(0xC000) != 4 {
		t.Error("Fixed bank should not move")
	}

	if banks := cart.MapperBanks(); len(banks) != 1 || banks[0] != 2 {
		t.Errorf("Unexpected bank state %v", banks)
	}
	cart.SetMapperBanks([]uint8{1})
	if cart.ReadPRG(0x8000) != 2 {
		t.Error("SetMapperBanks did not restore bank")
	}
}

func TestMapper002_CHRRAMShouldBeWritable(t *testing.T) {
	cart, _ := LoadFromBytes(BuildINES(ROMImage{PRG: make([]uint8, 2*prgBankSize), Mapper: 2}))
	cart.WriteCHR(0x0010, 0x5A)
	if cart.ReadCHR(0x0010) != 0x5A {
		t.Error("Expected CHR RAM write to stick")
	}
}

func TestMapper003_ShouldSelectCHRBank(t *testing.T) {
	chr := make([]uint8, 4*chrBankSize)
	for bank := 0; bank < 4; bank++ {
		chr[bank*chrBankSize+0x10] = uint8(0xA0 + bank)
	}
	cart, err := LoadFromBytes(BuildINES(ROMImage{CHR: chr, Mapper: 3}))
	if err != nil {
		t.Fatal(err)
	}

	for bank := 0; bank < 4; bank++ {
		cart.WritePRG(0x8000, uint8(bank)|0xFC)
		if got := cart.ReadCHR(0x0010); got != uint8(0xA0+bank) {
			t.Errorf("Bank %d: expected 0x%02X, got 0x%02X", bank, 0xA0+bank, got)
		}
	}
}

func TestMapper003_BankShouldWrapOnSmallCHR(t *testing.T) {
	chr := make([]uint8, 2*chrBankSize)
	chr[0] = 0x01
	chr[chrBankSize] = 0x02
	cart, _ := LoadFromBytes(BuildINES(ROMImage{CHR: chr, Mapper: 3}))

	cart.WritePRG(0x8000, 3)
	if got := cart.ReadCHR(0); got != 0x02 {
		t.Errorf("Expected bank 3 to wrap to bank 1, got 0x%02X", got)
	}
}

func TestMapper003_ShouldIgnoreCHRROMWrites(t *testing.T) {
	chr := make([]uint8, chrBankSize)
	chr[0] = 0x01
	cart, _ := LoadFromBytes(BuildINES(ROMImage{CHR: chr, Mapper: 3}))
	cart.WriteCHR(0, 0xFF)
	if cart.ReadCHR(0) != 0x01 {
		t.Error("CHR ROM should be read-only")
	}
}

func TestMapper003_PRGRAM(t *testing.T) {
	cart, _ := LoadFromBytes(BuildINES(ROMImage{CHR: make([]uint8, chrBankSize), Mapper: 3}))
	cart.WritePRG(0x6001, 0x42)
	if cart.ReadPRG(0x6001) != 0x42 {
		t.Error("Expected PRG RAM at 0x6000")
	}
}
