// Package aldl implements the Assembly Line Diagnostic Link frame format
// used by GM/Holden engine controllers: encoding, decoding, checksums, and
// the request/reply exchange over a half-duplex serial link.
//
// Frame shape
//
//	[DeviceID][Length][Mode][Payload...][Checksum]
//
// The length byte is not a literal byte count. It follows the convention
// used by the reference flash tool: the number of bytes actually placed on
// the wire is Length-82, the checksum sits at index Length-83, and the mode
// plus payload together are Length-85 bytes long. Encode and Decode hide
// this arithmetic; callers only ever see a Mode and a Payload.
//
// The checksum is additive: the sum of every byte in the wire frame,
// including the checksum byte itself, is congruent to zero modulo 256.
//
// Exchange drives the request/reply pattern over a transport.Transport: it
// writes a frame, discards the self-echo every half-duplex link produces,
// reads the reply, and retries on timeout, checksum failure, or a reply
// mode that does not match what was expected.
package aldl
