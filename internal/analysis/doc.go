// Package analysis characterizes recorded runs.
//
// [PowerSpectrum] and [DominantFrequency] find the oscillation a set of gains
// settles into: an under-damped loop rings at a clear peak, a well-damped one
// leaves only low-frequency drift.
//
//	freq, ok := analysis.DominantFrequency(positions, control.Dt)
//	if ok {
//	    fmt.Printf("rings at %.2f Hz\n", freq)
//	}
package analysis
