// Package womb synthesizes a continuous "womb bed": a maternal heartbeat made
// of two percussive thumps (lub and dub), pink-ish noise texture, and a slow
// breathing-rate amplitude modulation.
//
// The package is a sample-by-sample pull generator. A [Bed] owns every piece
// of session state (scheduler, envelopes, noise filter, breathing phase and a
// seeded random source) and produces one mono float32 sample per call:
//
//	bed, err := womb.New(womb.Config{
//	    SampleRate:   48000,
//	    Seed:         42,
//	    HeartRateBPM: 110,
//	    HeartLevelDB: -15,
//	    NoiseLevelDB: -36,
//	})
//	if err != nil {
//	    return err
//	}
//	for range n {
//	    s := bed.NextSample()
//	    // ...
//	}
//
// Two beds built from the same Config produce bit-identical sequences. A Bed
// is not safe for concurrent use; calls must be strictly sequential.
//
// File containers, normalization and stereo are handled by the render and
// stream packages.
package womb
