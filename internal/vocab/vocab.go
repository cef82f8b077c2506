// Package vocab holds the fixed character alphabet of the pretrained models
// and the SMILES token splitter used for atom alignment and display.
package vocab

import (
	"fmt"
	"regexp"
	"strings"
)

// Alphabet is the fixed symbol set the models were trained on. Index 0 (the
// space character) doubles as the padding symbol. The alphabet is part of the
// trained weights and must never change.
const Alphabet = " ^#%()+-./0123456789=@ABCDEFGHIKLMNOPRSTVXYZ[\\]abcdefgilmnoprstuy$"

// Size is the number of symbols in the alphabet.
const Size = len(Alphabet)

// PadIndex is the symbol index used for padding positions.
const PadIndex = 0

// UnknownSymbolError reports a character outside the fixed alphabet.
type UnknownSymbolError struct {
	Symbol   byte
	Position int
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("vocab: symbol %q at position %d is not in the model alphabet", e.Symbol, e.Position)
}

var charToIndex [256]int16

func init() {
	for i := range charToIndex {
		charToIndex[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		charToIndex[Alphabet[i]] = int16(i)
	}
}

// Index returns the alphabet index of ch.
func Index(ch byte) (int, bool) {
	ix := charToIndex[ch]
	if ix < 0 {
		return 0, false
	}
	return int(ix), true
}

// Encode maps every character of s to its alphabet index. A character outside
// the alphabet yields an UnknownSymbolError and no partial result.
func Encode(s string) ([]int, error) {
	out := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		ix, ok := Index(s[i])
		if !ok {
			return nil, &UnknownSymbolError{Symbol: s[i], Position: i}
		}
		out[i] = ix
	}
	return out, nil
}

// tokenPattern splits a SMILES string into chemically meaningful tokens:
// bonds, digits, bracket atoms, ring-closure labels, branches and one- or
// two-letter element symbols. Two-letter symbols are listed before the
// single-letter class so they win the alternation.
var tokenPattern = regexp.MustCompile(
	`#|=|-[0-9]*|\+[0-9]*|[0-9]|\[.{2,5}\]|%[0-9]{2}|\(|\)|\.|/|\\|:|@+|\{|\}|` +
		`Cl|Ca|Cu|Br|Be|Ba|Bi|Si|Se|Sr|Na|Ni|Rb|Ra|Xe|Li|Al|As|Ag|Au|Mg|Mn|Te|Zn|He|Kr|Fe|` +
		`[BCFHIKNOPScnos]`)

// Tokenize splits s into SMILES tokens. Characters that match nothing are
// dropped, mirroring the behavior of the training pipeline.
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(s, -1)
}

// Contains reports whether every character of s is in the alphabet.
func Contains(s string) bool {
	for i := 0; i < len(s); i++ {
		if _, ok := Index(s[i]); !ok {
			return false
		}
	}
	return true
}

// Describe returns a printable form of the alphabet for diagnostics.
func Describe() string {
	var b strings.Builder
	for i := 0; i < len(Alphabet); i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d=%q", i, Alphabet[i])
	}
	return b.String()
}
