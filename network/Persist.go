package network

import (
	"encoding/gob"
	"fmt"
	"os"
)

// namedTensor is the serialized form of a single parameter
type namedTensor struct {
	Name  string
	Shape []int
	Data  []float64
}

// Save writes the full ordered parameter sequence, including the
// normalization running statistics, to the file at path. Missing parent
// directories are not created.
func Save(path string, p *Params) error {
	tensors := make([]namedTensor, p.Len())
	for i := range tensors {
		spec := p.Spec(i)
		tensors[i] = namedTensor{
			Name:  spec.Name,
			Shape: spec.Shape,
			Data:  p.Value(i),
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create model file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(tensors); err != nil {
		return fmt.Errorf("save: could not encode parameters: %w", err)
	}
	return file.Close()
}

// Load reads parameters written by Save into p. The stored parameters
// must match p in number, order, name, and shape; otherwise a
// *ShapeError is returned and p is left unchanged.
func Load(path string, p *Params) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open model file: %w", err)
	}
	defer file.Close()

	var tensors []namedTensor
	if err := gob.NewDecoder(file).Decode(&tensors); err != nil {
		return fmt.Errorf("load: could not decode parameters: %w", err)
	}

	if len(tensors) != p.Len() {
		return &ShapeError{
			Op:   "load",
			Want: fmt.Sprintf("%v parameters", p.Len()),
			Have: fmt.Sprintf("%v parameters", len(tensors)),
		}
	}
	for i, t := range tensors {
		spec := p.Spec(i)
		if err := matchSpec("load", spec, t.Name, t.Shape); err != nil {
			return err
		}
		if len(t.Data) != spec.Size() {
			return &ShapeError{
				Op:   "load",
				Name: spec.Name,
				Want: fmt.Sprintf("%v elements", spec.Size()),
				Have: fmt.Sprintf("%v elements", len(t.Data)),
			}
		}
	}

	for i, t := range tensors {
		copy(p.Value(i), t.Data)
	}
	p.Touch()

	return nil
}
