// Package bankmap translates between file offsets in a 128 KiB image and
// the (bank register value, CPU address) pairs the bank-switched HC11F1
// memory map actually uses, and enumerates which sectors each write mode
// touches.
//
// The 68HC11F1 exposes a 16-bit CPU address space, but the Am29F010 holds
// 128 KiB. A bank register selects which 64 KiB window of flash backs CPU
// addresses 0x0000-0xFFFF. Three banks (0x48, 0x58, 0x50) between them
// cover the whole image, with the upper two banks only contributing their
// top half (CPU 0x8000-0xFFFF); that asymmetry is why the conversions
// are table-driven rather than a single arithmetic formula.
package bankmap
