// Package ort provides CGO bindings for ONNX Runtime.
// It implements the driven.ModelSession interface.
//
// Build requires:
//   - ONNX Runtime shared library and C API headers
//   - A C11 compiler
package ort
