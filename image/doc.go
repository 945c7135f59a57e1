// Package image works with whole 128 KiB flash images: loading and saving
// raw .bin files, computing and verifying the embedded calibration
// checksum, importing and exporting Intel HEX, and driving a session.Session
// through a full read, write, or live datalog of an ECU's flash contents.
package image
