// Package vecu implements a virtual engine controller: a transport.Transport
// that answers ALDL frames the way the real 68HC11F1 PCM would, backed by a
// *nor.Chip instead of physical silicon.
//
// It exists so the rest of this module can be exercised without hardware: a
// session opened against a *vecu.ECU drives the exact same state machine,
// retry discipline, and kernel upload sequence it would against a serial
// port, and the erase/program/checksum side effects land on a real (simulated)
// flash chip rather than being faked at the protocol layer.
package vecu
