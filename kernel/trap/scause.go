package trap

// Cause classifies why a hart trapped into supervisor mode, decoded from
// the scause CSR: the top bit distinguishes an interrupt from an
// exception, and the remaining bits are a per-kind code.
type Cause int

const (
	CauseUnknown Cause = iota
	CauseSupervisorTimer
	CauseSupervisorExternal
	CauseUserEcall
	CauseSupervisorEcall
	CausePageFault
	CauseOtherException
)

const interruptBit = uint64(1) << 63

// DecodeScause maps a raw scause register value to a Cause. Only the causes
// the trap path actually discriminates on are named; anything else is
// CauseOtherException (for exceptions) or CauseUnknown (for interrupts the
// core does not otherwise act on).
func DecodeScause(bits uint64) Cause {
	isInterrupt := bits&interruptBit != 0
	code := bits &^ interruptBit

	if isInterrupt {
		switch code {
		case 5:
			return CauseSupervisorTimer
		case 9:
			return CauseSupervisorExternal
		default:
			return CauseUnknown
		}
	}

	switch code {
	case 8:
		return CauseUserEcall
	case 9:
		return CauseSupervisorEcall
	case 12, 13, 15:
		return CausePageFault
	default:
		return CauseOtherException
	}
}
