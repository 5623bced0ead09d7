// Package audio groups the audio processing sub-packages used to prepare
// aligner training data:
//
//   - audiofile: decode WAV and MP3 files into mono float32 PCM
//   - resampler: sample-rate conversion and channel downmix
//   - loudness: ITU-R BS.1770 integrated loudness and normalization
//   - vad: WebRTC voice activity trimming
//   - fbank: log mel filterbank and mel-spectrogram extraction
//   - preprocess: the per-utterance pipeline combining all of the above
//
// Example usage:
//
//	a, err := audiofile.Load("utt.wav")
//	if err != nil {
//	    return err
//	}
//	p, _ := preprocess.New(preprocess.DefaultConfig())
//	wave, err := p.Normalize(a.Samples, a.SampleRate)
//	mel := p.MelSpectrogram(preprocess.TrimZeros(wave))
package audio
