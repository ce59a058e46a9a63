// Package checkpointer implements Checkpointers, which periodically save
// objects during an experiment
package checkpointer

// Saver is an object that can be saved to a file
type Saver interface {
	Save(path string) error
}

// SaverFunc adapts a function to the Saver interface
type SaverFunc func(path string) error

// Save calls f(path)
func (f SaverFunc) Save(path string) error {
	return f(path)
}

// Checkpointer checkpoints objects based on the number of finished
// episodes
type Checkpointer interface {
	Checkpoint(episode int) error
}

// Fixed returns a function which always returns filename, so that each
// checkpoint overwrites the last
func Fixed(filename string) func() string {
	return func() string {
		return filename
	}
}
