//go:build js && wasm
// +build js,wasm

// Command spectralwasm is the browser entry point for the spectral core:
// it registers load/setView/render/setPlayhead/setPreferGpu/teardown on
// the JS global object: argument validation, numbered error codes, and
// js.FuncOf exports for this module's facade.
package main

import (
	"fmt"
	"syscall/js"

	"github.com/kakira9618/spectralcore/pkg/spectral"
)

// Error codes returned to JavaScript.
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorNotLoaded
	ErrorOperationFailed
)

var core *spectral.Core

func makeErrorResponse(code int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", code)
	result.Set("message", message)
	return result
}

func makeOKResponse() js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	return result
}

// jsLoad(channelArrays: Array<Float32Array>, sampleRate: number)
//
// channelArrays holds one Float32Array per channel, already decoded by
// the host's own audio decoder (out of scope for this module per
// the core never touches a file format.
func jsLoad(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "expected (channelArrays, sampleRate)")
	}
	channelArrays := args[0]
	sampleRate := args[1]
	if channelArrays.Type() != js.TypeObject || sampleRate.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "channelArrays must be an array, sampleRate a number")
	}

	nch := channelArrays.Length()
	if nch == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "channelArrays is empty")
	}

	channels := make([][]float32, nch)
	length := 0
	for c := 0; c < nch; c++ {
		arr := channelArrays.Index(c)
		n := arr.Length()
		if c == 0 {
			length = n
		}
		buf := make([]float32, n)
		jsFloat32ToGo(arr, buf)
		channels[c] = buf
	}

	pcm := spectral.PcmBuffer{
		SampleRate:   sampleRate.Int(),
		ChannelCount: nch,
		Length:       length,
		Channels:     channels,
	}

	if err := core.Load(pcm); err != nil {
		return makeErrorResponse(ErrorOperationFailed, err.Error())
	}
	return makeOKResponse()
}

// jsSetView(viewStart: number, viewDuration: number, samplesPerPixel: number)
func jsSetView(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "expected (viewStart, viewDuration, samplesPerPixel)")
	}
	if err := core.SetView(args[0].Float(), args[1].Float(), args[2].Float()); err != nil {
		return makeErrorResponse(ErrorNotLoaded, err.Error())
	}
	return makeOKResponse()
}

// jsRender(wDev: number, hDev: number, dpr: number) -> { error, pixels: Uint8ClampedArray }
func jsRender(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "expected (wDev, hDev, dpr)")
	}
	wDev, hDev, dpr := args[0].Int(), args[1].Int(), args[2].Float()
	if wDev <= 0 || hDev <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("invalid dimensions %dx%d", wDev, hDev))
	}

	buf := make([]byte, wDev*hDev*4)
	if err := core.Render(buf, wDev, hDev, dpr); err != nil {
		return makeErrorResponse(ErrorNotLoaded, err.Error())
	}

	jsArr := js.Global().Get("Uint8ClampedArray").New(len(buf))
	js.CopyBytesToJS(jsArr, buf)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("pixels", jsArr)
	return result
}

// jsSetPlayhead(currentTime: number, playing: boolean)
func jsSetPlayhead(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return makeErrorResponse(ErrorInvalidArgs, "expected (currentTime, playing)")
	}
	core.SetPlayhead(args[0].Float(), args[1].Bool())
	return makeOKResponse()
}

// jsSetPreferGpu(prefer: boolean)
func jsSetPreferGpu(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return makeErrorResponse(ErrorInvalidArgs, "expected (prefer)")
	}
	core.SetPreferGPU(args[0].Bool())
	return makeOKResponse()
}

// jsTeardown() cancels pending work and releases GPU handles, if any. On
// js/wasm the GPU backend is always nil (see pkg/spectral/gpu_js.go), so
// this only drains in-flight builder goroutines.
func jsTeardown(this js.Value, args []js.Value) any {
	core.Teardown()
	return makeOKResponse()
}

// jsFloat32ToGo copies a JS Float32Array element-by-element; CopyBytesToGo
// only moves byte buffers, not typed float arrays, and this runs once per
// Load call rather than per frame.
func jsFloat32ToGo(arr js.Value, dst []float32) {
	for i := range dst {
		dst[i] = float32(arr.Index(i).Float())
	}
}

func main() {
	console := js.Global().Get("console")

	var err error
	core, err = spectral.New()
	if err != nil {
		console.Call("error", "spectralcore: failed to initialize core: "+err.Error())
		return
	}

	bridge := js.Global().Get("Object").New()
	bridge.Set("load", js.FuncOf(jsLoad))
	bridge.Set("setView", js.FuncOf(jsSetView))
	bridge.Set("render", js.FuncOf(jsRender))
	bridge.Set("setPlayhead", js.FuncOf(jsSetPlayhead))
	bridge.Set("setPreferGpu", js.FuncOf(jsSetPreferGpu))
	bridge.Set("teardown", js.FuncOf(jsTeardown))
	js.Global().Set("spectralCore", bridge)

	console.Call("log", "spectralcore: wasm module ready")

	window := js.Global().Get("window")
	if !window.IsUndefined() {
		eventInit := js.Global().Get("Object").New()
		event := js.Global().Get("CustomEvent").New("spectralCoreReady", eventInit)
		window.Call("dispatchEvent", event)
	}

	<-make(chan struct{})
}
