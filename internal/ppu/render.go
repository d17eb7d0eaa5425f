package ppu

// renderCycle performs the work of the current dot on the pre-render and
// visible scanlines
func (p *PPU) renderCycle() {
	visibleLine := p.scanline >= 0 && p.scanline < ScreenHeight
	preLine := p.scanline == preRenderScanline
	visibleCycle := p.cycle >= 1 && p.cycle <= ScreenWidth

	if !p.renderingEnabled() || p.memory == nil {
		if visibleLine && visibleCycle {
			p.frameBuffer[p.scanline*ScreenWidth+p.cycle-1] = p.backdropColor()
		}
		return
	}

	if visibleLine && visibleCycle {
		p.renderPixel()
	}

	renderLine := visibleLine || preLine
	prefetchCycle := p.cycle >= 321 && p.cycle <= 336
	fetchCycle := visibleCycle || prefetchCycle

	if renderLine && fetchCycle {
		p.tileData <<= 4
		switch p.cycle % 8 {
		case 1:
			p.fetchNameTableByte()
		case 3:
			p.fetchAttributeTableByte()
		case 5:
			p.fetchLowTileByte()
		case 7:
			p.fetchHighTileByte()
		case 0:
			p.storeTileData()
		}
	}

	if preLine && p.cycle >= 280 && p.cycle <= 304 {
		p.copyY()
	}

	if renderLine {
		if fetchCycle && p.cycle%8 == 0 {
			p.incrementX()
		}
		if p.cycle == 256 {
			p.incrementY()
		}
		if p.cycle == 257 {
			p.copyX()
		}
	}

	if p.cycle == 257 {
		if visibleLine {
			p.evaluateSprites()
		} else {
			p.spriteCount = 0
		}
	}
}

// renderPixel composes the background and sprite pixel at the current dot
func (p *PPU) renderPixel() {
	x := p.cycle - 1
	y := p.scanline

	background := p.backgroundPixel()
	i, sprite := p.spritePixel()

	if x < 8 && p.ppuMask&maskLeftBackground == 0 {
		background = 0
	}
	if x < 8 && p.ppuMask&maskLeftSprites == 0 {
		sprite = 0
	}

	b := background%4 != 0
	s := sprite%4 != 0

	var color uint8
	switch {
	case !b && !s:
		color = 0
	case !b && s:
		color = sprite | 0x10
	case b && !s:
		color = background
	default:
		if p.spriteIndexes[i] == 0 && x < 255 {
			p.ppuStatus |= statusSprite0Hit
		}
		if p.spritePriorities[i] == 0 {
			color = sprite | 0x10
		} else {
			color = background
		}
	}

	p.frameBuffer[y*ScreenWidth+x] = p.paletteColor(p.memory.Read(0x3F00 + uint16(color)))
}

func (p *PPU) paletteColor(index uint8) uint32 {
	if p.ppuMask&maskGrayscale != 0 {
		index &= 0x30
	}
	return NESColorToRGB(index & 0x3F)
}

func (p *PPU) backdropColor() uint32 {
	if p.memory == nil {
		return NESColorToRGB(0x0F)
	}
	return p.paletteColor(p.memory.Read(0x3F00))
}

// Background

func (p *PPU) backgroundPixel() uint8 {
	if p.ppuMask&maskBackground == 0 {
		return 0
	}
	data := uint32(p.tileData>>32) >> ((7 - p.x) * 4)
	return uint8(data & 0x0F)
}

func (p *PPU) fetchNameTableByte() {
	p.nameTableByte = p.memory.Read(0x2000 | p.v&0x0FFF)
}

func (p *PPU) fetchAttributeTableByte() {
	v := p.v
	address := 0x23C0 | v&0x0C00 | (v>>4)&0x38 | (v>>2)&0x07
	shift := (v>>4)&4 | v&2
	p.attributeTableByte = (p.memory.Read(address) >> shift) & 3 << 2
}

func (p *PPU) backgroundPatternAddress() uint16 {
	fineY := (p.v >> 12) & 7
	table := uint16(0)
	if p.ppuCtrl&ctrlBackgroundTable != 0 {
		table = 0x1000
	}
	return table + uint16(p.nameTableByte)*16 + fineY
}

func (p *PPU) fetchLowTileByte() {
	p.lowTileByte = p.memory.Read(p.backgroundPatternAddress())
}

func (p *PPU) fetchHighTileByte() {
	p.highTileByte = p.memory.Read(p.backgroundPatternAddress() + 8)
}

func (p *PPU) storeTileData() {
	var data uint32
	lo, hi := p.lowTileByte, p.highTileByte
	for i := 0; i < 8; i++ {
		p1 := (lo & 0x80) >> 7
		p2 := (hi & 0x80) >> 6
		lo <<= 1
		hi <<= 1
		data <<= 4
		data |= uint32(p.attributeTableByte | p1 | p2)
	}
	p.tileData |= uint64(data)
}

// Sprites

func (p *PPU) spriteHeight() int {
	if p.ppuCtrl&ctrlSprite8x16 != 0 {
		return 16
	}
	return 8
}

// evaluateSprites loads up to eight sprites that intersect the current
// scanline. They are drawn on the following line, matching the one line
// delay of OAM Y coordinates.
func (p *PPU) evaluateSprites() {
	h := p.spriteHeight()
	count := 0
	for i := 0; i < 64; i++ {
		y := p.oam[i*4]
		attributes := p.oam[i*4+2]
		x := p.oam[i*4+3]
		row := p.scanline - int(y)
		if row < 0 || row >= h {
			continue
		}
		if count < 8 {
			p.spritePatterns[count] = p.fetchSpritePattern(i, row)
			p.spritePositions[count] = x
			p.spritePriorities[count] = (attributes >> 5) & 1
			p.spriteIndexes[count] = uint8(i)
		}
		count++
	}
	if count > 8 {
		count = 8
		p.ppuStatus |= statusOverflow
	}
	p.spriteCount = count
}

func (p *PPU) fetchSpritePattern(i, row int) uint32 {
	tile := p.oam[i*4+1]
	attributes := p.oam[i*4+2]

	var address uint16
	if p.ppuCtrl&ctrlSprite8x16 == 0 {
		if attributes&0x80 != 0 {
			row = 7 - row
		}
		table := uint16(0)
		if p.ppuCtrl&ctrlSpriteTable != 0 {
			table = 0x1000
		}
		address = table + uint16(tile)*16 + uint16(row)
	} else {
		if attributes&0x80 != 0 {
			row = 15 - row
		}
		table := uint16(tile&1) * 0x1000
		tile &= 0xFE
		if row > 7 {
			tile++
			row -= 8
		}
		address = table + uint16(tile)*16 + uint16(row)
	}

	palette := (attributes & 3) << 2
	lo := p.memory.Read(address)
	hi := p.memory.Read(address + 8)

	var data uint32
	for j := 0; j < 8; j++ {
		var p1, p2 uint8
		if attributes&0x40 != 0 {
			p1 = lo & 1
			p2 = (hi & 1) << 1
			lo >>= 1
			hi >>= 1
		} else {
			p1 = (lo & 0x80) >> 7
			p2 = (hi & 0x80) >> 6
			lo <<= 1
			hi <<= 1
		}
		data <<= 4
		data |= uint32(palette | p1 | p2)
	}
	return data
}

// spritePixel returns the first opaque sprite pixel at the current dot
func (p *PPU) spritePixel() (int, uint8) {
	if p.ppuMask&maskSprites == 0 {
		return 0, 0
	}
	for i := 0; i < p.spriteCount; i++ {
		offset := (p.cycle - 1) - int(p.spritePositions[i])
		if offset < 0 || offset > 7 {
			continue
		}
		offset = 7 - offset
		color := uint8((p.spritePatterns[i] >> uint(offset*4)) & 0x0F)
		if color%4 == 0 {
			continue
		}
		return i, color
	}
	return 0, 0
}

// Scroll helper methods for VRAM address manipulation

// incrementX increments the coarse X and wraps to next nametable if needed
func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY increments fine Y, and if it overflows, increments coarse Y
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = p.v&^0x03E0 | y<<5
}

// copyX copies all X-related bits from t to v (bits 10, 4-0)
func (p *PPU) copyX() {
	p.v = p.v&0xFBE0 | p.t&0x041F
}

// copyY copies all Y-related bits from t to v (bits 11, 14-5)
func (p *PPU) copyY() {
	p.v = p.v&0x841F | p.t&0x7BE0
}
