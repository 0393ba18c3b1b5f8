package util

// Nevermind deliberately discards a result whose failure case is
// expected and not actionable — most commonly, a send to a receiver
// that has already gone away. Spelling the discard out, rather than
// using a bare `_ = ...`, marks it as a considered decision instead of
// an oversight.
func Nevermind[T any](_ T) {}
