package vocab

import (
	"errors"
	"reflect"
	"testing"
)

func TestEncodeRoundTrip(t *testing.T) {
	ids, err := Encode("CCO")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i, ix := range ids {
		if Alphabet[ix] != "CCO"[i] {
			t.Fatalf("index %d maps to %q, want %q", ix, Alphabet[ix], "CCO"[i])
		}
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	_, err := Encode("C!O")
	if err == nil {
		t.Fatalf("expected error for symbol outside alphabet")
	}
	var unknown *UnknownSymbolError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownSymbolError, got %T", err)
	}
	if unknown.Symbol != '!' || unknown.Position != 1 {
		t.Fatalf("unexpected error detail: %+v", unknown)
	}
}

func TestPadIndexIsSpace(t *testing.T) {
	if Alphabet[PadIndex] != ' ' {
		t.Fatalf("pad symbol is %q, want space", Alphabet[PadIndex])
	}
}

func TestTokenize(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"CCO", []string{"C", "C", "O"}},
		{"c1ccccc1", []string{"c", "1", "c", "c", "c", "c", "c", "1"}},
		{"CC(=O)Cl", []string{"C", "C", "(", "=", "O", ")", "Cl"}},
		{"C[NH3+]", []string{"C", "[NH3+]"}},
		{"BrC=C", []string{"Br", "C", "=", "C"}},
		{"C/C=C\\C", []string{"C", "/", "C", "=", "C", "\\", "C"}},
	}
	for _, tc := range cases {
		got := Tokenize(tc.in)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("Tokenize(%q): got %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTwoLetterSymbolsWinOverSingle(t *testing.T) {
	got := Tokenize("ClC")
	if len(got) != 2 || got[0] != "Cl" {
		t.Fatalf("expected Cl to tokenize as one symbol, got %v", got)
	}
}
