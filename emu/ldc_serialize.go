package emu

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// State file layout: 12-byte magic, uint16 version, uint32 CRC-32 (IEEE)
// of the payload, then the payload blocks in a fixed order. All integers
// are little-endian.
const (
	stateMagic      = "eMLDState\x00\x00\x00"
	stateVersion    = 1
	stateHeaderSize = 12 + 2 + 4
)

var (
	ErrStateMagic   = errors.New("not a state file")
	ErrStateVersion = errors.New("unsupported state version")
	ErrStateCRC     = errors.New("state checksum mismatch")
	ErrStateSize    = errors.New("state file truncated")
)

const (
	// ctrlSerializeSize: enhanced(1) + fbEnabled(1) + tmEnabled(1) +
	// fbInFront(1) + anomaly(1) + msPerFrame(4) + lastCtrl(4) +
	// tmScx(4) + tmScy(4)
	ctrlSerializeSize = 5 + 4*4

	// paletteSerializeSize: palette RAM + backdrop entry
	paletteSerializeSize = 256*4 + 4

	// classicSerializeSize: back + front buffers
	classicSerializeSize = classicBufSize * 2

	// vramSerializeSize: framebuffer + tilemap table + tilemap graphics +
	// sprite table + sprite graphics
	vramSerializeSize = fbSize + tmTableSize + tileGfxSize + sprTableSize + tileGfxSize

	// inputSerializeSize: the three latched key selections
	inputSerializeSize = 3

	statePayloadSize = ctrlSerializeSize + paletteSerializeSize +
		classicSerializeSize + vramSerializeSize + inputSerializeSize

	// StateSize is the exact size of a serialized device state.
	StateSize = stateHeaderSize + statePayloadSize
)

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Serialize captures the full device state. Layer caches and the output
// frame are derived and rebuilt on restore, so they are not stored.
func (d *LDC) Serialize() []byte {
	buf := make([]byte, StateSize)
	copy(buf[0:12], stateMagic)
	binary.LittleEndian.PutUint16(buf[12:14], stateVersion)

	p := buf[stateHeaderSize:]

	d.mu.Lock()
	p[0] = boolByte(d.enhanced)
	p[1] = boolByte(d.fbEnabled)
	p[2] = boolByte(d.tmEnabled)
	p[3] = boolByte(d.fbInFront)
	p[4] = boolByte(d.anomaly)
	binary.LittleEndian.PutUint32(p[5:], uint32(d.msPerFrame))
	binary.LittleEndian.PutUint32(p[9:], d.lastCtrl)
	d.mu.Unlock()
	binary.LittleEndian.PutUint32(p[13:], uint32(d.tmScx))
	binary.LittleEndian.PutUint32(p[17:], uint32(d.tmScy))
	o := ctrlSerializeSize

	o += copy(p[o:], d.palette[:])
	o += copy(p[o:], d.backdrop[:])

	o += copy(p[o:], d.classicBack[:])
	o += copy(p[o:], d.classicFront[:])

	o += copy(p[o:], d.fb[:])
	o += copy(p[o:], d.tmTable[:])
	o += copy(p[o:], d.tmGfx[:])
	o += copy(p[o:], d.sprTable[:])
	o += copy(p[o:], d.sprGfx[:])

	sel := d.input.latchedSelections()
	copy(p[o:], sel[:])

	binary.LittleEndian.PutUint32(buf[14:18], crc32.ChecksumIEEE(buf[stateHeaderSize:]))
	return buf
}

// Deserialize restores a device state captured by Serialize. Every layer
// cache is marked dirty and the frame recomposited, so Frame reflects the
// restored state immediately. Like Reset, this is a writer-side
// operation.
func (d *LDC) Deserialize(buf []byte) error {
	if len(buf) < stateHeaderSize {
		return ErrStateSize
	}
	if string(buf[0:12]) != stateMagic {
		return ErrStateMagic
	}
	if binary.LittleEndian.Uint16(buf[12:14]) != stateVersion {
		return ErrStateVersion
	}
	if len(buf) != StateSize {
		return ErrStateSize
	}
	if binary.LittleEndian.Uint32(buf[14:18]) != crc32.ChecksumIEEE(buf[stateHeaderSize:]) {
		return ErrStateCRC
	}

	p := buf[stateHeaderSize:]

	d.mu.Lock()
	d.enhanced = p[0] != 0
	d.fbEnabled = p[1] != 0
	d.tmEnabled = p[2] != 0
	d.fbInFront = p[3] != 0
	d.anomaly = p[4] != 0
	d.msPerFrame = int(binary.LittleEndian.Uint32(p[5:]))
	d.lastCtrl = binary.LittleEndian.Uint32(p[9:])
	d.mu.Unlock()
	d.tmScx = int32(binary.LittleEndian.Uint32(p[13:]))
	d.tmScy = int32(binary.LittleEndian.Uint32(p[17:]))
	o := ctrlSerializeSize

	o += copy(d.palette[:], p[o:])
	o += copy(d.backdrop[:], p[o:])

	o += copy(d.classicBack[:], p[o:])
	o += copy(d.classicFront[:], p[o:])

	o += copy(d.fb[:], p[o:])
	o += copy(d.tmTable[:], p[o:])
	o += copy(d.tmGfx[:], p[o:])
	o += copy(d.sprTable[:], p[o:])
	o += copy(d.sprGfx[:], p[o:])

	var sel [3]uint8
	copy(sel[:], p[o:])
	d.input.restoreSelections(sel)

	d.dirty.markAll()
	if d.enhanced {
		d.compositeFrame()
	} else {
		d.renderClassic()
		d.publish()
	}
	return nil
}
