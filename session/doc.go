// Package session drives one programming session against an ECU: the
// ordered sequence of silence, authenticate, enter-programming, upload-
// kernel, and the kernel-mediated flash operations that become legal once a
// kernel is resident, down to cleanup.
//
// A Session owns its transport.Transport exclusively. Operations are not
// safe to call concurrently on the same Session; a call made while another
// is in flight fails immediately with ErrBusy rather than blocking or
// corrupting state.
package session
