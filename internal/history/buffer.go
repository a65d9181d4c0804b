package history

// Capacity is the number of samples a Buffer keeps.
const Capacity = 500

// Buffer is a bounded FIFO of samples, oldest first. A Buffer is never
// modified after it is built, so snapshots holding one can share it freely.
type Buffer struct {
	values []float64
}

// Of builds a buffer from values, keeping only the newest Capacity of them.
func Of(values ...float64) Buffer {
	if len(values) > Capacity {
		values = values[len(values)-Capacity:]
	}
	if len(values) == 0 {
		return Buffer{}
	}
	v := make([]float64, len(values))
	copy(v, values)
	return Buffer{values: v}
}

// Push returns a new buffer with v appended, evicting from the front once
// the buffer is full.
func (b Buffer) Push(v float64) Buffer {
	start := 0
	if len(b.values) >= Capacity {
		start = len(b.values) - Capacity + 1
	}
	kept := b.values[start:]
	out := make([]float64, len(kept)+1)
	copy(out, kept)
	out[len(kept)] = v
	return Buffer{values: out}
}

func (b Buffer) Len() int { return len(b.values) }

func (b Buffer) At(i int) float64 { return b.values[i] }

// Last returns the newest sample.
func (b Buffer) Last() (float64, bool) {
	if len(b.values) == 0 {
		return 0, false
	}
	return b.values[len(b.values)-1], true
}

// Values returns a copy of the samples, oldest first.
func (b Buffer) Values() []float64 {
	out := make([]float64, len(b.values))
	copy(out, b.values)
	return out
}
