// Package cgo provides CGO bindings for native libraries.
// This package isolates all CGO code from the pure Go core.
//
// Sub-packages:
//   - ort: ONNX Runtime bindings for local embedding inference
package cgo
