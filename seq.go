package hudp

// seqLT reports whether sequence number a precedes b under mod-2^16 serial
// number arithmetic (RFC 1982 style): a is "less than" b if the forward
// distance from a to b is in [1, 2^15).
func seqLT(a, b uint16) bool {
	return uint16(b-a) != 0 && uint16(b-a) < 0x8000
}

// seqInWindow reports whether s falls within [base, base+width) under
// mod-2^16 arithmetic.
func seqInWindow(s, base uint16, width int) bool {
	return uint32(s-base) < uint32(width)
}
