package timing

// minPulseState is carried across samples by MinPulse.
type minPulseState struct {
	prev float64 // emitted level
	hold int     // samples emitted at prev so far
}

// MinPulse suppresses every transition that would leave a run shorter than
// w samples. A transition at index k is taken only when the current output
// run has lasted w samples and the input keeps the new level for the next w
// samples (or until the end of the grid). Otherwise the previous level is
// held. Traces whose runs are already at least w long pass unchanged.
func MinPulse(s []float64, w int) []float64 {
	out := make([]float64, len(s))
	if len(s) == 0 {
		return out
	}
	if w <= 1 {
		copy(out, s)
		return out
	}

	st := minPulseState{prev: s[0], hold: 1}
	out[0] = s[0]
	for k := 1; k < len(s); k++ {
		if s[k] != st.prev && st.hold >= w && settled(s, k, w) {
			st.prev = s[k]
			st.hold = 1
		} else {
			st.hold++
		}
		out[k] = st.prev
	}
	return out
}

// settled reports whether s keeps the value s[k] for w samples from k.
func settled(s []float64, k, w int) bool {
	end := k + w
	if end > len(s) {
		end = len(s)
	}
	for i := k + 1; i < end; i++ {
		if s[i] != s[k] {
			return false
		}
	}
	return true
}

// deadTimeState is carried across samples by DeadTime.
type deadTimeState struct {
	raw float64 // last commanded level
	run int     // samples since raw changed
}

// DeadTime delays the turn-on edge of both complementary devices of a leg by
// td samples. During the blanking interval neither device conducts and the
// output is 0. The start of the grid counts as settled.
func DeadTime(s []float64, td int) []float64 {
	out := make([]float64, len(s))
	if len(s) == 0 {
		return out
	}

	st := deadTimeState{raw: s[0], run: td}
	for k, v := range s {
		if v != st.raw {
			st.raw = v
			st.run = 0
		}
		if st.run >= td {
			out[k] = level(st.raw)
		}
		st.run++
	}
	return out
}

func level(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Gates splits a leg trace into upper and lower device conduction.
func Gates(s []float64) (upper, lower []bool) {
	upper = make([]bool, len(s))
	lower = make([]bool, len(s))
	for k, v := range s {
		upper[k] = v > 0
		lower[k] = v < 0
	}
	return upper, lower
}

// Enforce applies MinPulse and then DeadTime. Blanking takes deadTime
// samples off the start of every conducting run, so with both constraints
// set the minimum pulse is widened by deadTime first. Conducting runs are
// then at least minPulse long and blanking runs exactly deadTime long.
func Enforce(s []float64, minPulse, deadTime int) []float64 {
	if deadTime <= 0 {
		return MinPulse(s, minPulse)
	}
	w := minPulse
	if w > 0 {
		w += deadTime
	}
	return DeadTime(MinPulse(s, w), deadTime)
}

// EnforceAll runs Enforce on every leg.
func EnforceAll(legs [][]float64, minPulse, deadTime int) [][]float64 {
	out := make([][]float64, len(legs))
	for i, s := range legs {
		out[i] = Enforce(s, minPulse, deadTime)
	}
	return out
}

// Runs returns the lengths of maximal runs of equal values.
func Runs(s []float64) []int {
	if len(s) == 0 {
		return nil
	}
	var runs []int
	n := 1
	for k := 1; k < len(s); k++ {
		if s[k] == s[k-1] {
			n++
			continue
		}
		runs = append(runs, n)
		n = 1
	}
	return append(runs, n)
}
