// Package resampler converts interleaved float32 audio between sample rates
// using github.com/tphakala/go-audio-resampling (pure Go, no cgo).
//
// A Float is stateful: feed consecutive blocks of one stream through Process
// and call Drain once the input is exhausted to collect the filter tail.
//
// Example usage:
//
//	rs, err := resampler.New(48000, 16000, 1)
//	if err != nil {
//	    return err
//	}
//	out, err := rs.Process(block)
//	...
//	tail, err := rs.Drain()
package resampler
