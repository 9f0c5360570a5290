// Package spectral is the facade for the keyframe editor's audio-analysis
// and view-synchronization core: it turns a decoded audio signal into a
// time-frequency image and keeps that image consistent with a
// scrolling/zoomed waveform view while the user pans, zooms, seeks, and
// plays.
package spectral

import "github.com/kakira9618/spectralcore/internal/specmodel"

// PcmBuffer is immutable decoded audio input. It is produced by an
// external decoder (out of scope for this module) and never mutated.
type PcmBuffer = specmodel.PcmBuffer

// Spectrogram is the immutable result of one analysis run: a dense
// row-major frames x bins array of magnitudes normalized to [0,1].
type Spectrogram = specmodel.Spectrogram

// Playhead is owned by the external audio player; the core only reads it.
type Playhead = specmodel.Playhead

// ColorStop is one control point of the renderer's perceptual color map.
type ColorStop = specmodel.ColorStop

// TelemetryEvent is one operational log row. It never contains spectrogram
// data, only metadata about a run.
type TelemetryEvent = specmodel.TelemetryEvent

// TelemetrySink receives scalar operational-event records.
type TelemetrySink = specmodel.TelemetrySink

// Logger is the logging interface the core depends on.
type Logger = specmodel.Logger
