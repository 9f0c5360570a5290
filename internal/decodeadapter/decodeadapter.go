// Package decodeadapter turns a mono or multi-channel PCM WAV file into a
// specmodel.PcmBuffer, standing in for the external decoder the module's
// public API otherwise treats as opaque. Grounded directly on the
// go-audio/wav + go-audio/audio decode-then-deinterleave sequence.
package decodeadapter

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kakira9618/spectralcore/internal/errs"
	"github.com/kakira9618/spectralcore/internal/specmodel"
)

// FromWAVFile reads path as a WAV file and returns a de-interleaved,
// normalized-to-[-1,1] PcmBuffer.
func FromWAVFile(path string) (specmodel.PcmBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return specmodel.PcmBuffer{}, err
	}
	defer f.Close()
	return FromWAVReader(f)
}

// FromWAVReader is the same as FromWAVFile but over an already-open
// io.ReadSeeker, so callers that hold bytes rather than a path can skip
// the filesystem.
func FromWAVReader(r interface {
	Read([]byte) (int, error)
	Seek(int64, int) (int64, error)
}) (specmodel.PcmBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return specmodel.PcmBuffer{}, errs.New(errs.InvalidSize).Op("decodeadapter.FromWAVReader").Context("reason", "not a valid WAV file").Build()
	}

	duration, err := decoder.Duration()
	if err != nil {
		return specmodel.PcmBuffer{}, fmt.Errorf("reading wav duration: %w", err)
	}

	totalSamples := int(duration.Seconds() * float64(decoder.SampleRate))
	if totalSamples == 0 {
		return specmodel.PcmBuffer{}, errs.New(errs.InsufficientLength).Op("decodeadapter.FromWAVReader").Build()
	}
	numChans := int(decoder.NumChans)

	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChans,
			SampleRate:  int(decoder.SampleRate),
		},
		Data:           make([]int, totalSamples*numChans),
		SourceBitDepth: int(decoder.BitDepth),
	}

	n, err := decoder.PCMBuffer(buf)
	if err != nil {
		return specmodel.PcmBuffer{}, fmt.Errorf("reading wav pcm data: %w", err)
	}

	frameCount := n / numChans
	channels := make([][]float32, numChans)
	for c := range channels {
		channels[c] = make([]float32, frameCount)
	}

	maxVal := float32(int(1) << (uint(decoder.BitDepth) - 1))
	for i := 0; i < frameCount; i++ {
		for c := 0; c < numChans; c++ {
			channels[c][i] = float32(buf.Data[i*numChans+c]) / maxVal
		}
	}

	return specmodel.PcmBuffer{
		SampleRate:   int(decoder.SampleRate),
		ChannelCount: numChans,
		Length:       frameCount,
		Channels:     channels,
	}, nil
}
