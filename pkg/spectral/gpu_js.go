//go:build js || wasm

package spectral

import "github.com/kakira9618/spectralcore/internal/specmodel"

// newGPUBackend has no implementation under js/wasm: the browser's own
// canvas/WebGL layer is the host's concern, not this core's. PreferGPU is
// accepted but has no effect on these builds.
func newGPUBackend() specmodel.GPUBackend {
	return nil
}
