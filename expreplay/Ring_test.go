package expreplay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/naf/timestep"
)

// labeled returns a Transition whose reward identifies it
func labeled(label float64) timestep.Transition {
	return timestep.NewTransition([]float64{label, 0}, []float64{label},
		true, []float64{label, 1}, label)
}

func TestRingOverwrite(t *testing.T) {
	r := New(5, 2, 1, 1)
	for i := 1; i <= 7; i++ {
		if err := r.Push(labeled(float64(i))); err != nil {
			t.Fatal(err)
		}
	}

	if r.Len() != 5 {
		t.Errorf("length \n\twant(5) \n\thave(%v)", r.Len())
	}
	if r.Cursor() != 2 {
		t.Errorf("cursor \n\twant(2) \n\thave(%v)", r.Cursor())
	}

	// Slots 0 and 1 held 1 and 2 before being overwritten
	if r.At(0).Reward != 6 || r.At(1).Reward != 7 {
		t.Errorf("overwritten slots \n\twant(6, 7) \n\thave(%v, %v)",
			r.At(0).Reward, r.At(1).Reward)
	}

	want := []float64{3, 4, 5, 6, 7}
	have := r.Transitions()
	for i := range want {
		if have[i].Reward != want[i] {
			t.Errorf("insertion order at %v \n\twant(%v) \n\thave(%v)", i,
				want[i], have[i].Reward)
		}
	}
}

func TestRingSampleDistinct(t *testing.T) {
	r := New(10, 2, 1, 7)
	for i := 0; i < 10; i++ {
		r.Push(labeled(float64(i)))
	}

	for trial := 0; trial < 20; trial++ {
		batch, err := r.Sample(10)
		if err != nil {
			t.Fatal(err)
		}

		seen := make(map[float64]bool)
		for _, tr := range batch {
			if seen[tr.Reward] {
				t.Fatalf("transition %v sampled twice", tr.Reward)
			}
			seen[tr.Reward] = true
		}
	}
}

func TestRingSampleErrors(t *testing.T) {
	r := New(4, 2, 1, 1)
	if _, err := r.Sample(1); !IsEmptyBuffer(err) {
		t.Errorf("sampling from an empty buffer \n\twant(empty error) "+
			"\n\thave(%v)", err)
	}

	r.Push(labeled(1))
	r.Push(labeled(2))
	if _, err := r.Sample(3); !IsInsufficientSamples(err) {
		t.Errorf("sampling beyond length \n\twant(insufficient error) "+
			"\n\thave(%v)", err)
	}
	if batch, err := r.Sample(2); err != nil || len(batch) != 2 {
		t.Errorf("sampling all transitions: %v, %v", batch, err)
	}
}

func TestRingPushValidates(t *testing.T) {
	r := New(4, 2, 1, 1)
	bad := timestep.NewTransition([]float64{1}, []float64{1}, true,
		[]float64{1}, 0)
	if err := r.Push(bad); err == nil {
		t.Error("push should reject transitions of the wrong size")
	}
	if r.Len() != 0 {
		t.Errorf("length after rejected push \n\twant(0) \n\thave(%v)",
			r.Len())
	}
}

func TestRingSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "experience.gob")

	r := New(5, 2, 1, 1)
	for i := 1; i <= 7; i++ {
		r.Push(labeled(float64(i)))
	}
	if err := r.Save(path); err != nil {
		t.Fatal(err)
	}

	// Restoring into a smaller buffer keeps only the newest transitions
	small := New(3, 2, 1, 1)
	if err := small.Load(path); err != nil {
		t.Fatal(err)
	}
	if small.Len() != 3 || small.Cursor() != 0 {
		t.Errorf("restored length and cursor \n\twant(3, 0) \n\thave(%v, %v)",
			small.Len(), small.Cursor())
	}
	if small.Transitions()[0].Reward != 5 {
		t.Errorf("oldest restored \n\twant(5) \n\thave(%v)",
			small.Transitions()[0].Reward)
	}

	large := New(8, 2, 1, 1)
	if err := large.Load(path); err != nil {
		t.Fatal(err)
	}
	if large.Len() != 5 || large.Cursor() != 5 {
		t.Errorf("restored length and cursor \n\twant(5, 5) \n\thave(%v, %v)",
			large.Len(), large.Cursor())
	}
	large.Push(labeled(8))
	if large.At(5).Reward != 8 {
		t.Errorf("push after load \n\twant(8) \n\thave(%v)", large.At(5).Reward)
	}
}

func TestRingSaveMissingDirectory(t *testing.T) {
	r := New(2, 2, 1, 1)
	r.Push(labeled(1))

	path := filepath.Join(t.TempDir(), "missing", "experience.gob")
	if err := r.Save(path); err == nil {
		t.Error("save into a missing directory should fail")
	}
	if _, err := os.Stat(filepath.Dir(path)); !os.IsNotExist(err) {
		t.Error("save should not create directories")
	}
}

func TestNewBatch(t *testing.T) {
	transitions := []timestep.Transition{
		timestep.NewTransition([]float64{1, 2}, []float64{0.5}, true,
			[]float64{3, 4}, -1),
		timestep.NewTransition([]float64{5, 6}, []float64{-0.5}, false,
			[]float64{7, 8}, 2),
	}

	b, err := NewBatch(transitions)
	if err != nil {
		t.Fatal(err)
	}

	wantStates := []float64{1, 2, 5, 6}
	for i := range wantStates {
		if b.States[i] != wantStates[i] {
			t.Errorf("states \n\twant(%v) \n\thave(%v)", wantStates, b.States)
			break
		}
	}
	if b.Masks[0] != 1 || b.Masks[1] != 0 {
		t.Errorf("masks \n\twant([1 0]) \n\thave(%v)", b.Masks)
	}
	if b.Rewards[1] != 2 || b.NextStates[3] != 8 {
		t.Errorf("unexpected batch: %+v", b)
	}
}
