package explain

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
)

// Rootings is a precomputed rooting table, the file format the CLI and API
// accept. Atoms and Roots are index-aligned: Roots[i] is the serialization
// rooted at the atom whose symbol is Atoms[i].
type Rootings struct {
	// Input is the canonical serialization the chart is rendered against.
	Input string   `json:"input"`
	Atoms []string `json:"atoms"`
	Roots []string `json:"rooted"`
}

// Validate checks the structural constraints of a rooting table.
func (r *Rootings) Validate() error {
	if r.Input == "" {
		return fmt.Errorf("explain: rootings have no input string")
	}
	if len(r.Atoms) == 0 {
		return ErrNoAtoms
	}
	if len(r.Atoms) != len(r.Roots) {
		return fmt.Errorf("explain: %d atoms but %d rooted strings", len(r.Atoms), len(r.Roots))
	}
	return nil
}

func (r *Rootings) NumAtoms() int { return len(r.Atoms) }

func (r *Rootings) Atom(i int) string { return r.Atoms[i] }

func (r *Rootings) Rooted(i int) (string, error) { return r.Roots[i], nil }

// ReadRootings decodes a JSON rooting table.
func ReadRootings(rd io.Reader) (*Rootings, error) {
	var r Rootings
	if err := json.NewDecoder(rd).Decode(&r); err != nil {
		return nil, fmt.Errorf("explain: decode rootings: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// LoadRootings reads a rooting table from a file.
func LoadRootings(path string) (*Rootings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadRootings(f)
}
