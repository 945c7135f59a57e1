package kernel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

func blocksByName() map[string][]byte {
	return map[string][]byte{
		"ExecBlock0":  ExecBlock0,
		"ExecBlock1":  ExecBlock1,
		"ExecBlock2":  ExecBlock2,
		"FlashInfo":   FlashInfo,
		"EraseSector": EraseSector,
		"WriteBank":   WriteBank,
		"ChecksumBin": ChecksumBin,
		"Cleanup":     Cleanup,
	}
}

func digestOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// referenceDigests holds the SHA-256 digest of every embedded kernel block
// as a baked-in constant. Verify recomputes the digests on demand and
// compares against this table, so it catches a block whose bytes differ
// from the transcribed ones, whether edited in the source or mutated in
// place at run time (the patch helpers in kernel.go copy before patching
// and never mutate ExecBlock0 et al. directly).
var referenceDigests = map[string]string{
	"ExecBlock0":  "535f1faa078d9f8ce4d719d609912e1003d9e3cf4ef6bc0698244f0d92a72ba1",
	"ExecBlock1":  "41c76786b0690b36fe1ac21d53dbe53908b53f7df2833bf764c575d77f2c65f8",
	"ExecBlock2":  "b56e287fb9a4d06bd5cef9c93fd06b149c405a37b4249cd3ee0eaa23571eea9c",
	"FlashInfo":   "6b2ca49fd4b627369b1699c65109a0ffe1392c0ef91adad6b0047a61edc26553",
	"EraseSector": "e755de39a3bdd9da5ae97b332e70e01f50e1d62bc08484d5023d0f9cf8c8521b",
	"WriteBank":   "7679c854077ee18ae014febaa2132c0f249060271d2a002434119ffba47a0c68",
	"ChecksumBin": "af6fb867254cf82910ae2465230bfc71e918a4d31ec50113c18c19865c035e27",
	"Cleanup":     "4759d80d41d95d6d955b8c5d29770162c72aa2cc25b0d8f1617b8f23b36d956a",
}

func computeDigests() map[string]string {
	blocks := blocksByName()
	digests := make(map[string]string, len(blocks))
	for name, data := range blocks {
		digests[name] = digestOf(data)
	}
	return digests
}

// Verify recomputes the SHA-256 digest of every embedded kernel block and
// compares it against referenceDigests, returning an error naming
// the first block that does not match.
func Verify() error {
	for name, data := range blocksByName() {
		want, ok := referenceDigests[name]
		if !ok {
			return fmt.Errorf("kernel: no reference digest for block %s", name)
		}
		if got := digestOf(data); got != want {
			return fmt.Errorf("kernel: block %s digest mismatch: got %s, want %s", name, got, want)
		}
	}
	return nil
}
