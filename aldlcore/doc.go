// Package aldlcore is the stable public surface a caller (a CLI, a GUI, a
// test harness) programs against: open a link, read or write a whole
// flash image, stream the live datastream, and query basic ECU
// identity, without touching session, image, or bankmap directly.
package aldlcore
