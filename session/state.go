package session

// State is one node of the session lifecycle: Idle, Silenced,
// Authenticated, Programming, KernelResident, or Failed. Every operation
// checks the current state before touching the transport and rejects a
// call made out of order with a *StateError rather than sending a frame
// the ECU isn't expecting.
type State int32

const (
	// StateIdle is the state of a freshly opened session: normal ALDL
	// traffic (datastream modes) is possible, nothing else is.
	StateIdle State = iota

	// StateSilenced follows a successful mode 8 exchange: the ECU has
	// stopped broadcasting its own datastream and will only answer
	// frames addressed to it.
	StateSilenced

	// StateAuthenticated follows a successful seed/key exchange.
	StateAuthenticated

	// StateProgramming follows a granted mode 5 enter-programming
	// request. A kernel has not been uploaded yet.
	StateProgramming

	// StateKernelResident follows a successful 3-block kernel upload.
	// Erase, program, read, and checksum operations are legal here.
	StateKernelResident

	// StateFailed is terminal: a fatal error left the session's
	// relationship with the ECU in an unknown state. Only Close is
	// permitted.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateSilenced:
		return "Silenced"
	case StateAuthenticated:
		return "Authenticated"
	case StateProgramming:
		return "Programming"
	case StateKernelResident:
		return "KernelResident"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
