// Package resampler converts float32 PCM between sample rates using the
// pure Go go-audio-resampling library.
//
// Example usage:
//
//	wave16k, err := resampler.Resample(wave, 44100, 16000)
//	if err != nil {
//	    return err
//	}
package resampler
