package layout

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Word is a 32-byte big-endian storage value. Every slot and map entry holds
// exactly one word, regardless of field kind, so snapshots of the physical
// state compare byte-for-byte across logic versions.
type Word [32]byte

// ZeroWord is the value of every slot that has never been written.
var ZeroWord Word

// WordFromBig encodes a non-negative integer of at most 256 bits.
func WordFromBig(v *big.Int) (Word, error) {
	var w Word
	if v == nil {
		return w, fmt.Errorf("word: nil value")
	}
	if v.Sign() < 0 {
		return w, fmt.Errorf("word: negative value %s", v)
	}
	if v.BitLen() > 256 {
		return w, fmt.Errorf("word: value exceeds 256 bits")
	}
	v.FillBytes(w[:])
	return w, nil
}

// Big decodes the word as an unsigned integer.
func (w Word) Big() *big.Int {
	return new(big.Int).SetBytes(w[:])
}

// WordFromUint64 encodes v into the low-order bytes of a word.
func WordFromUint64(v uint64) Word {
	var w Word
	binary.BigEndian.PutUint64(w[24:], v)
	return w
}

// Uint64 decodes the low-order bytes. The high-order bytes must be zero for
// the value to round-trip; fields declared uint64 are only ever written via
// WordFromUint64, so this holds by construction.
func (w Word) Uint64() uint64 {
	return binary.BigEndian.Uint64(w[24:])
}

// WordFromBool encodes false as the zero word and true as one.
func WordFromBool(v bool) Word {
	var w Word
	if v {
		w[31] = 1
	}
	return w
}

// Bool reports whether the word is non-zero.
func (w Word) Bool() bool {
	return w != ZeroWord
}

// IsZero reports whether the word equals the never-written value.
func (w Word) IsZero() bool {
	return w == ZeroWord
}
