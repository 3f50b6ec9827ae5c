package rtx

import "fmt"

// In-place byte-region shifts over an owned buffer. Both rely on copy's
// memmove semantics, so source and destination ranges may overlap.

// shiftRight moves buf[from:to] forward by n bytes. The buffer must have
// room for the shifted range; otherwise nothing is written and
// ErrShortBuffer is returned.
func shiftRight(buf []byte, from, to, n int) error {
	if from < 0 || from > to || n < 0 || to+n > len(buf) {
		return fmt.Errorf("%w: right shift [%d:%d) by %d in %d bytes", ErrShortBuffer, from, to, n, len(buf))
	}
	copy(buf[from+n:to+n], buf[from:to])
	return nil
}

// shiftLeft moves buf[from:to] backward by n bytes, overwriting the n bytes
// before the range.
func shiftLeft(buf []byte, from, to, n int) error {
	if n < 0 || from-n < 0 || from > to || to > len(buf) {
		return fmt.Errorf("%w: left shift [%d:%d) by %d in %d bytes", ErrShortBuffer, from, to, n, len(buf))
	}
	copy(buf[from-n:to-n], buf[from:to])
	return nil
}
