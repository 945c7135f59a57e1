package session

// DeriveKey computes the key an ECU expects in response to the seed it
// issued during a mode 13 seed/key exchange: plain addition against a
// fixed constant, wrapping modulo 65536.
func DeriveKey(seed uint16) uint16 {
	return seed + seedKeyMagic
}

// seedKeyMagic is the constant the seed/key transform adds. Kept in sync
// with the virtual ECU's own copy (vecu.SeedKeyMagic) by grounding both on
// the same worked example.
const seedKeyMagic = 0x9349
