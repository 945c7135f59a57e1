// Package nor models the AMD Am29F010 NOR flash chip as a pure state
// machine driven by (address, data) write tuples, the same command
// sequences a real Am29F010 recognizes: unlock, program, and sector
// erase. It is the canonical reference for what the physical chip does,
// used by the virtual ECU (vecu) as the test oracle behind every simulated
// erase and program.
//
// The chip ignores the upper address bits of the unlock addresses, same
// as the real part: 0x5555 and 0x2AAA are recognized by their low 15
// bits regardless of which 16 KiB sector is otherwise selected.
package nor
