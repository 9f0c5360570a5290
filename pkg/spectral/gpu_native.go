//go:build !js && !wasm

package spectral

import (
	"github.com/kakira9618/spectralcore/internal/spectral/gpu"
	"github.com/kakira9618/spectralcore/internal/specmodel"
)

// newGPUBackend opens the OpenGL compute-shader backend on platforms that
// can host a GLFW context. On js/wasm builds, see gpu_js.go.
func newGPUBackend() specmodel.GPUBackend {
	return gpu.New()
}
