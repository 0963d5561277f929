package detector

// Accumulator counts significant-motion frames and latches once the count
// reaches the required number. Calm frames decay the count by one instead of
// clearing it.
type Accumulator struct {
	required    int
	consecutive int
	latched     bool
}

// NewAccumulator creates an Accumulator latching after required frames (minimum 1).
func NewAccumulator(required int) *Accumulator {
	if required < 1 {
		required = 1
	}
	return &Accumulator{required: required}
}

// Record feeds one classification and returns true once latched.
func (a *Accumulator) Record(significant bool) bool {
	if a.latched {
		return true
	}

	if !significant {
		if a.consecutive > 0 {
			a.consecutive--
		}
		return false
	}

	a.consecutive++
	if a.consecutive >= a.required {
		a.latched = true
	}
	return a.latched
}

func (a *Accumulator) Count() int {
	return a.consecutive
}

func (a *Accumulator) Latched() bool {
	return a.latched
}

func (a *Accumulator) Required() int {
	return a.required
}

// Reset clears the count and the latch.
func (a *Accumulator) Reset() {
	a.consecutive = 0
	a.latched = false
}
