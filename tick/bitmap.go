package tick

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrMisalignedTick is returned by Bitmap.Flip when the tick is not a
// multiple of the pool's tickSpacing.
var ErrMisalignedTick = errors.New("tick: tick not aligned to tickSpacing")

// Bitmap is the 256-bit-word index of initialized ticks described in
// spec §4.4: map from word index to a 256-bit word, one bit per
// compressed tick. A set bit means "initialized"; this is kept exactly
// in sync with Table as an invariant, never derived lazily.
type Bitmap struct {
	words map[int16]*uint256.Int
}

// NewBitmap returns an empty bitmap.
func NewBitmap() *Bitmap {
	return &Bitmap{words: make(map[int16]*uint256.Int)}
}

// floorDiv performs integer division rounding toward negative infinity,
// needed because compressing a negative tick must floor rather than
// truncate toward zero.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func position(compressed int32) (wordPos int16, bitPos uint8) {
	return int16(compressed >> 8), uint8(uint32(compressed) & 0xff)
}

func (b *Bitmap) wordOrZero(w int16) *uint256.Int {
	word, ok := b.words[w]
	if !ok {
		return new(uint256.Int)
	}
	return word
}

// Flip toggles the bit for tick i (which must be a multiple of
// tickSpacing).
func (b *Bitmap) Flip(i, tickSpacing int32) error {
	if i%tickSpacing != 0 {
		return ErrMisalignedTick
	}
	compressed := floorDiv(i, tickSpacing)
	wordPos, bitPos := position(compressed)
	mask := new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos))
	word, ok := b.words[wordPos]
	if !ok {
		word = new(uint256.Int)
		b.words[wordPos] = word
	}
	word.Xor(word, mask)
	return nil
}

// IsInitialized reports whether the bit for tick i is set.
func (b *Bitmap) IsInitialized(i, tickSpacing int32) bool {
	compressed := floorDiv(i, tickSpacing)
	wordPos, bitPos := position(compressed)
	word := b.wordOrZero(wordPos)
	return word.Bit(int(bitPos)) == 1
}

// NextInitializedTickWithinOneWord finds the next tick, relative to
// currentTick, that either is initialized within the same bitmap word or
// is the boundary of that word (so the caller can continue word by word),
// per spec §4.4. lte=true searches at-or-below (toward lower ticks, used
// for zeroForOne swaps); lte=false searches strictly above.
func (b *Bitmap) NextInitializedTickWithinOneWord(currentTick, tickSpacing int32, lte bool) (next int32, initialized bool) {
	compressed := floorDiv(currentTick, tickSpacing)

	if lte {
		wordPos, bitPos := position(compressed)
		word := b.wordOrZero(wordPos)
		// mask of bits at-or-below bitPos
		mask := new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)+1), uint256.NewInt(1))
		masked := new(uint256.Int).And(word, mask)
		if !masked.IsZero() {
			msb := msbIndex(masked)
			return (int32(wordPos)*256 + int32(msb)) * tickSpacing, true
		}
		return (int32(wordPos) * 256) * tickSpacing, false
	}

	compressed++
	wordPos, bitPos := position(compressed)
	word := b.wordOrZero(wordPos)
	// mask of bits at-or-above bitPos
	mask := new(uint256.Int).Not(new(uint256.Int).Sub(new(uint256.Int).Lsh(uint256.NewInt(1), uint(bitPos)), uint256.NewInt(1)))
	masked := new(uint256.Int).And(word, mask)
	if !masked.IsZero() {
		lsb := lsbIndex(masked)
		return (int32(wordPos)*256 + int32(lsb)) * tickSpacing, true
	}
	return (int32(wordPos)*256 + 255) * tickSpacing, false
}

func msbIndex(x *uint256.Int) int {
	return x.BitLen() - 1
}

func lsbIndex(x *uint256.Int) int {
	if x.IsZero() {
		return 0
	}
	for i := 0; i < 256; i++ {
		if x.Bit(i) == 1 {
			return i
		}
	}
	return 0
}
