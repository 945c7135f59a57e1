package image

import "github.com/kingai-forge/aldlflash/bankmap"

// Report is the machine-readable result of a WriteImage call: where it
// got to, so a failed or cancelled write can resume without redoing
// sectors that already programmed and verified cleanly.
type Report struct {
	Mode bankmap.Mode

	// LastGoodSector is the index of the last sector that erased,
	// programmed, and verified completely. -1 if none did.
	LastGoodSector int

	// LastGoodOffset is the file offset immediately past the last byte
	// successfully programmed within LastGoodSector's sector, or within
	// the sector that failed if the write stopped partway through one.
	LastGoodOffset uint32

	// Checksum is the calibration checksum the kernel reported after the
	// write completed. Zero (and Err nil) means the image is valid.
	Checksum uint16

	// Err is the error that stopped the write, nil on a full success.
	Err error
}

// Complete reports whether the write ran to completion with a valid
// on-chip checksum.
func (r *Report) Complete() bool {
	return r != nil && r.Err == nil
}
