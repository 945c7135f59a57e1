package kernel

// Patch offsets, documented inline in the source this was extracted
// from: byte[21] of block 0 and byte[166] of block 1 select high-speed
// vs. normal read timing; byte[105]/[106] of the erase-sector block
// carry the bank and sector-base operand; byte[157] of the write-bank
// block carries the bank operand.
const (
	block0HighSpeedOffset = 21
	block1HighSpeedOffset = 166

	highSpeedByte0, normalByte0 = 0x81, 0x41
	highSpeedByte1, normalByte1 = 0x80, 0x40

	eraseSectorBankOffset   = 105
	eraseSectorSelectOffset = 106

	writeBankOffset = 157
)

// ExecBlocks returns the 3 kernel blocks uploaded via mode 6, with the
// read-speed patch applied. highSpeed selects the faster, less
// conservative read timing the reference tool offers as an option.
func ExecBlocks(highSpeed bool) [][]byte {
	b0 := append([]byte(nil), ExecBlock0...)
	b1 := append([]byte(nil), ExecBlock1...)
	b2 := append([]byte(nil), ExecBlock2...)

	if highSpeed {
		b0[block0HighSpeedOffset] = highSpeedByte0
		b1[block1HighSpeedOffset] = highSpeedByte1
	} else {
		b0[block0HighSpeedOffset] = normalByte0
		b1[block1HighSpeedOffset] = normalByte1
	}
	return [][]byte{b0, b1, b2}
}

// EraseSectorBlock returns the erase-sector kernel routine patched to
// target the given bank register value and sector selector byte (the
// high byte of the sector's base CPU address).
func EraseSectorBlock(bank, selector byte) []byte {
	b := append([]byte(nil), EraseSector...)
	b[eraseSectorBankOffset] = bank
	b[eraseSectorSelectOffset] = selector
	return b
}

// WriteBankBlock returns the bank-select kernel routine patched to
// activate the given bank register value before a write.
func WriteBankBlock(bank byte) []byte {
	b := append([]byte(nil), WriteBank...)
	b[writeBankOffset] = bank
	return b
}
