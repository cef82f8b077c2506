package explain

import "github.com/alexarnimueller/transformer-cnn/internal/vocab"

// AlignTokens walks the tokens of a serialized molecule and its atom symbols
// in lockstep, returning the atom index behind each token or -1 for bond,
// ring-closure and branch tokens. A token consumes the next atom only when
// it matches that atom's symbol exactly.
func AlignTokens(tokens, atoms []string) []int {
	out := make([]int, len(tokens))
	k := 0
	for i, tok := range tokens {
		if k < len(atoms) && tok == atoms[k] {
			out[i] = k
			if k < len(atoms)-1 {
				k++
			}
		} else {
			out[i] = -1
		}
	}
	return out
}

// chartRows maps per-atom impacts onto the tokens of the input string.
func chartRows(input string, atoms []string, impacts []float64) []ChartRow {
	tokens := vocab.Tokenize(input)
	align := AlignTokens(tokens, atoms)
	rows := make([]ChartRow, len(tokens))
	for i, tok := range tokens {
		rows[i] = ChartRow{Token: tok}
		if a := align[i]; a >= 0 && a < len(impacts) {
			rows[i].Relevance = impacts[a]
		}
	}
	return rows
}
