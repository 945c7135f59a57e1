package kernel

// Raw HC11 machine code blocks. Extracted byte-for-byte from the
// reference tool's decompiled kernel images; see DESIGN.md for
// provenance. Do not hand-edit — patch via ExecBlocks,
// EraseSectorBlock, and WriteBankBlock instead.

var ExecBlock0 = []byte{
	0xF7, 0xFE, 0x06, 0x01, 0x32, 0x86, 0xAA, 0x36, 0x18, 0x30, 0x86, 0x06,
	0xC6, 0x01, 0xBD, 0xFF, 0xBD, 0x32, 0x39, 0xCC, 0x02, 0x41, 0x97, 0x34,
	0x9D, 0x24, 0x20, 0x99, 0x36, 0x18, 0x3C, 0x3C, 0x18, 0x38, 0xCE, 0x10,
	0x00, 0x86, 0x08, 0xA7, 0x2D, 0x4F, 0x97, 0x30, 0x86, 0xF7, 0x8D, 0x26,
	0x17, 0x8B, 0x55, 0x8D, 0x21, 0x96, 0x34, 0x8D, 0x1D, 0x5A, 0x27, 0x0A,
	0x18, 0xA6, 0x00, 0x8D, 0x15, 0x18, 0x08, 0x5A, 0x26, 0xF6, 0x96, 0x30,
	0x40, 0x8D, 0x0B, 0x1F, 0x2E, 0x40, 0xFC, 0x1D, 0x2D, 0x08, 0x18, 0x38,
	0x32, 0x39, 0x9D, 0x1E, 0x1F, 0x2E, 0x80, 0xFA, 0xA7, 0x2F, 0x9B, 0x30,
	0x97, 0x30, 0x39, 0x37, 0xC6, 0x55, 0xF7, 0x10, 0x3A, 0x53, 0xF7, 0x10,
	0x3A, 0xC6, 0x50, 0xF7, 0x18, 0x06, 0xC6, 0xA0, 0xF7, 0x18, 0x06, 0x33,
	0x39, 0xDC, 0x35, 0x4D, 0x26, 0x04, 0xC6, 0x48, 0x20, 0x0D, 0xC1, 0x80,
	0x24, 0x07, 0x14, 0x36, 0x80, 0xC6, 0x58, 0x20, 0x02, 0xC6, 0x50, 0xF7,
	0x10, 0x00, 0x39, 0x3C, 0xCE, 0x10, 0x00, 0x1C, 0x03, 0x08, 0x1D, 0x02,
	0x08, 0x38, 0x39, 0x3C, 0xCE, 0x10, 0x00, 0x1C, 0x03, 0x08, 0x1C, 0x02,
	0x08, 0x38, 0x39,
}

var ExecBlock1 = []byte{
	0xF7, 0xFF, 0x06, 0x00, 0x99, 0x86, 0xAA, 0x36, 0x18, 0x30, 0x86, 0x06,
	0xC6, 0x01, 0xBD, 0xFF, 0xBD, 0x32, 0x39, 0x32, 0x8D, 0x3F, 0x97, 0x37,
	0x7A, 0x00, 0x32, 0xCE, 0x03, 0x00, 0x20, 0x10, 0x8D, 0x33, 0x97, 0x2E,
	0x7A, 0x00, 0x32, 0x8D, 0x2C, 0x97, 0x2F, 0x7A, 0x00, 0x32, 0xDE, 0x2E,
	0x8C, 0x03, 0xFF, 0x22, 0xA5, 0x8D, 0x1E, 0xA7, 0x00, 0x08, 0x7A, 0x00,
	0x32, 0x26, 0xF1, 0x8D, 0x14, 0x5D, 0x26, 0x96, 0x96, 0x33, 0x81, 0x10,
	0x27, 0x06, 0xDE, 0x2E, 0xAD, 0x00, 0x20, 0x8A, 0xBD, 0x02, 0x18, 0x20,
	0xF9, 0x3C, 0xCE, 0x10, 0x00, 0x18, 0xCE, 0x05, 0x75, 0x7F, 0x00, 0x31,
	0x7A, 0x00, 0x31, 0x26, 0x04, 0x18, 0x09, 0x27, 0x06, 0x9D, 0x1E, 0x1F,
	0x2E, 0x0E, 0x02, 0x20, 0xDD, 0x1F, 0x2E, 0x20, 0xEB, 0xA6, 0x2F, 0x16,
	0xDB, 0x30, 0xD7, 0x30, 0x38, 0x39, 0x81, 0x02, 0x26, 0xCC, 0x8D, 0xD1,
	0x97, 0x35, 0x8D, 0xCD, 0x97, 0x36, 0x8D, 0xC9, 0x97, 0x37, 0x8D, 0xC5,
	0x5D, 0x26, 0xBB, 0xCE, 0x03, 0x20, 0x8D, 0x7A, 0x18, 0xDE, 0x36, 0x5F,
	0x18, 0xA6, 0x00, 0xA7, 0x00, 0x08, 0x18, 0x08, 0x5C, 0xC1, 0x40, 0x25,
	0xF3, 0xCE, 0x03, 0x20,
}

var ExecBlock2 = []byte{
	0xF7, 0xEF, 0x06, 0x00, 0x10, 0x20, 0x3E, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x7E, 0x01, 0xCC, 0x7E, 0x01, 0x90, 0x00, 0x00,
	0x00, 0x7E, 0x01, 0x49, 0x7E, 0x01, 0xC0, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x8E, 0x00, 0x4F,
	0x0F, 0xB6, 0x18, 0x05, 0x8A, 0x08, 0xB7, 0x18, 0x05, 0x9D, 0x27, 0x3C,
	0x30, 0x86, 0x06, 0x97, 0x34, 0xCC, 0xAA, 0x00, 0xED, 0x00, 0xC6, 0x02,
	0x9D, 0x24, 0x38, 0x8E, 0x00, 0x4F, 0xCE, 0x10, 0x00, 0x86, 0x04, 0xA7,
	0x2D, 0xEC, 0x2E, 0x4F, 0x97, 0x30, 0x1C, 0x2D, 0x02, 0x8D, 0x67, 0x81,
	0xF7, 0x26, 0xE8, 0x8D, 0x61, 0x80, 0x56, 0x25, 0xE2, 0x97, 0x32, 0x8D,
	0x59, 0x97, 0x33, 0x81, 0x06, 0x27, 0x1E, 0x81, 0x10, 0x26, 0x78, 0x8D,
	0x4D, 0x97, 0x35, 0x7A, 0x00, 0x32, 0x8D, 0x46, 0x97, 0x36, 0x7A, 0x00,
}

var FlashInfo = []byte{
	0xF7, 0xDE, 0x06, 0x02, 0x00, 0xC6, 0x48, 0xF7, 0x10, 0x00, 0x9D, 0x1B,
	0x86, 0xAA, 0xB7, 0x55, 0x55, 0x86, 0x55, 0xB7, 0x2A, 0xAA, 0x86, 0x90,
	0xB7, 0x55, 0x55, 0x9D, 0x27, 0xCE, 0x03, 0x20, 0xB6, 0x20, 0x00, 0xA7,
	0x00, 0x08, 0xB6, 0x20, 0x01, 0xA7, 0x00, 0x08, 0x18, 0xCE, 0x20, 0x02,
	0x8D, 0x52, 0x18, 0xCE, 0x40, 0x02, 0x8D, 0x4C, 0x18, 0xCE, 0x80, 0x02,
	0x8D, 0x46, 0x18, 0xCE, 0xC0, 0x02, 0x8D, 0x40, 0xC6, 0x58, 0xF7, 0x10,
	0x00, 0x18, 0xCE, 0x80, 0x02, 0x8D, 0x35, 0x18, 0xCE, 0xC0, 0x02, 0x8D,
	0x2F, 0xC6, 0x50, 0xF7, 0x10, 0x00, 0x18, 0xCE, 0x80, 0x02, 0x8D, 0x24,
	0x18, 0xCE, 0xC0, 0x02, 0x8D, 0x1E, 0x9D, 0x1B, 0xC6, 0xAA, 0xF7, 0x55,
	0x55, 0xC6, 0x55, 0xF7, 0x2A, 0xAA, 0xC6, 0xF0, 0xF7, 0x55, 0x55, 0x9D,
	0x27, 0xCE, 0x03, 0x20, 0xCC, 0x06, 0x0B, 0x97, 0x34, 0x9D, 0x24, 0x39,
	0x18, 0xA6, 0x00, 0xA7, 0x00, 0x08, 0x39,
}

var EraseSector = []byte{
	0xF7, 0xBF, 0x06, 0x02, 0x00, 0xF6, 0x02, 0x64, 0xF7, 0x10, 0x00, 0x9D,
	0x1B, 0x86, 0xAA, 0xB7, 0x55, 0x55, 0x86, 0x55, 0xB7, 0x2A, 0xAA, 0x86,
	0x80, 0xB7, 0x55, 0x55, 0x86, 0xAA, 0xB7, 0x55, 0x55, 0x86, 0x55, 0xB7,
	0x2A, 0xAA, 0x86, 0x30, 0xFE, 0x02, 0x65, 0xA7, 0x00, 0x9D, 0x27, 0x9D,
	0x1E, 0xFE, 0x02, 0x65, 0xA6, 0x00, 0x2B, 0x20, 0x85, 0x20, 0x27, 0xF3,
	0x9D, 0x1B, 0xC6, 0xAA, 0xF7, 0x55, 0x55, 0xC6, 0x55, 0xF7, 0x2A, 0xAA,
	0xC6, 0xF0, 0xF7, 0x55, 0x55, 0x9D, 0x27, 0x86, 0x06, 0x97, 0x34, 0xCC,
	0x55, 0x00, 0x20, 0x07, 0x86, 0x06, 0x97, 0x34, 0xCC, 0xAA, 0x00, 0x3C,
	0x30, 0xED, 0x00, 0xC6, 0x02, 0x9D, 0x24, 0x38, 0x39, 0x48, 0x40, 0x00,
}

var WriteBank = []byte{
	0xF7, 0xF1, 0x06, 0x02, 0x00, 0x3C, 0x30, 0x86, 0x06, 0x97, 0x34, 0xCC,
	0xAA, 0x00, 0xED, 0x00, 0xC6, 0x02, 0x9D, 0x24, 0x38, 0x39, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0xCE, 0x03, 0x00, 0x86, 0x20, 0xB7, 0x03,
	0x61, 0x18, 0xFE, 0x00, 0x36, 0x4F, 0xF6, 0x02, 0x98, 0xF7, 0x10, 0x00,
	0x9D, 0x1B, 0xC6, 0xAA, 0xF7, 0x55, 0x55, 0xC6, 0x55, 0xF7, 0x2A, 0xAA,
	0xC6, 0xA0, 0xF7, 0x55, 0x55, 0xE6, 0x00, 0x18, 0xE7, 0x00, 0x9D, 0x1E,
	0x9D, 0x27, 0xE6, 0x00, 0x37, 0x18, 0xE8, 0x00, 0x33, 0x2B, 0x0E, 0x18,
	0xE6, 0x00, 0xE1, 0x00, 0x27, 0x2D, 0x4C, 0x81, 0x0A, 0x23, 0xCB, 0x20,
	0x19, 0xC5, 0x20, 0x27, 0xE5, 0x3C, 0x9D, 0x1B, 0xC6, 0xAA, 0xF7, 0x55,
	0x55, 0xC6, 0x55, 0xF7, 0x2A, 0xAA, 0xC6, 0xF0, 0xF7, 0x55, 0x55, 0x9D,
	0x27, 0x38, 0x86, 0x10, 0x97, 0x34, 0xCC, 0x55, 0x00, 0xED, 0x00, 0xC6,
	0x02, 0x20, 0x13, 0x08, 0x18, 0x08, 0x7A, 0x03, 0x61, 0x26, 0x9A, 0x86,
	0x10, 0x97, 0x34, 0xCC, 0xAA, 0x00, 0xED, 0x00, 0xC6, 0x02, 0x9D, 0x24,
	0x39, 0x48,
}

var ChecksumBin = []byte{
	0xF7, 0xE1, 0x06, 0x02, 0x00, 0x86, 0x01, 0xB7, 0x03, 0x63, 0x18, 0xCE,
	0x03, 0xE8, 0xCE, 0x20, 0x00, 0xCC, 0x00, 0x00, 0x37, 0xF6, 0x03, 0x63,
	0xC1, 0x04, 0x33, 0x2C, 0x3B, 0x36, 0x37, 0xB6, 0x03, 0x63, 0x81, 0x01,
	0x26, 0x07, 0xC6, 0x48, 0xF7, 0x10, 0x00, 0x20, 0x10, 0x81, 0x02, 0x26,
	0x07, 0xC6, 0x58, 0xF7, 0x10, 0x00, 0x20, 0x05, 0xC6, 0x50, 0xF7, 0x10,
	0x00, 0x33, 0x32, 0xEB, 0x00, 0x89, 0x00, 0x08, 0x26, 0x06, 0x7C, 0x03,
	0x63, 0xCE, 0x80, 0x00, 0x18, 0x09, 0x26, 0x06, 0x9D, 0x1E, 0x18, 0xCE,
	0x03, 0xE8, 0x20, 0xBC, 0x3C, 0xCE, 0x40, 0x00, 0xE0, 0x00, 0x82, 0x00,
	0x08, 0x8C, 0x40, 0x08, 0x25, 0xF6, 0x37, 0x36, 0xFD, 0x03, 0x64, 0xB1,
	0x40, 0x06, 0x26, 0x09, 0xF1, 0x40, 0x07, 0x26, 0x04, 0x86, 0xAA, 0x20,
	0x02, 0x86, 0x55, 0x36, 0x86, 0x06, 0x97, 0x34, 0x30, 0xC6, 0x04, 0x9D,
	0x24, 0x32, 0x32, 0x33, 0x38, 0x39,
}

var Cleanup = []byte{
	0xF7, 0x74, 0x06, 0x02, 0x00, 0x3C, 0x30, 0x86, 0x06, 0x97, 0x34, 0xCC,
	0xBB, 0x00, 0xED, 0x00, 0xC6, 0x02, 0x9D, 0x24, 0x38, 0xCE, 0x01, 0xFF,
	0x6F, 0x00, 0x09, 0x26, 0xFB, 0x6F, 0x00, 0x20, 0xFE,
}
