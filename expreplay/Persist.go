package expreplay

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/naf/timestep"
)

// Save serializes the stored Transitions, oldest first, to the file at
// path. Missing parent directories are not created.
func (r *Ring) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create experience file: %w", err)
	}
	defer file.Close()

	transitions := r.Transitions()
	if err := gob.NewEncoder(file).Encode(transitions); err != nil {
		return fmt.Errorf("save: could not encode experience: %w", err)
	}

	return file.Close()
}

// Load restores the buffer from a file written by Save. The write
// cursor is set to the number of restored Transitions. Transitions of
// the wrong size are rejected and the buffer is left unchanged.
func (r *Ring) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open experience file: %w", err)
	}
	defer file.Close()

	var transitions []timestep.Transition
	if err := gob.NewDecoder(file).Decode(&transitions); err != nil {
		return fmt.Errorf("load: could not decode experience: %w", err)
	}

	for i, t := range transitions {
		if err := r.validate(t); err != nil {
			return &ExpReplayError{
				Op:  "load",
				Err: fmt.Errorf("transition %v: %w", i, err),
			}
		}
	}

	r.restore(transitions)
	return nil
}
