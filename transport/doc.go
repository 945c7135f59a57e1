// Package transport defines the byte-level link the aldl framer exchanges
// frames over, and provides the concrete links the rest of the module
// plugs in: a real serial port, a direct io.ReadWriter wrapper, an
// in-process loopback pipe, and (via the vecu package) a simulated ECU.
//
// Every Transport is half-duplex from the caller's point of view: a write
// is immediately followed by the link echoing those same bytes back
// before any real reply arrives. Transport implementations faithfully
// reproduce that echo; suppressing it is the framer's job, not the
// transport's, so that the same echo-handling logic is exercised whether
// the bytes come from a real cable or a simulator.
package transport
