//go:build cgo

package ort

/*
#cgo CFLAGS: -O2 -I${SRCDIR}/../../clib/build/onnxruntime/include
#cgo LDFLAGS: -lonnxruntime

#include "ort_wrapper.h"
#include <stdlib.h>
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/custodia-labs/recall/internal/core/ports/driven"
)

// Ensure Session implements the interface.
var _ driven.ModelSession = (*Session)(nil)

// Session wraps an ONNX Runtime inference session.
type Session struct {
	mu      sync.Mutex
	sess    *C.OrtWrapperSession
	inputs  []string
	outputs []string
}

// Open loads the ONNX model at path and queries its tensor names.
func Open(path string) (*Session, error) {
	if path == "" {
		return nil, errors.New("ort: model path cannot be empty")
	}

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	sess := C.ort_open(cpath)
	if sess == nil {
		return nil, fmt.Errorf("ort: failed to load model %s", path)
	}

	s := &Session{sess: sess}

	for i := 0; i < int(C.ort_input_count(sess)); i++ {
		s.inputs = append(s.inputs, C.GoString(C.ort_input_name(sess, C.int(i))))
	}
	for i := 0; i < int(C.ort_output_count(sess)); i++ {
		s.outputs = append(s.outputs, C.GoString(C.ort_output_name(sess, C.int(i))))
	}

	return s, nil
}

// InputNames returns the model's input tensor names.
func (s *Session) InputNames() []string {
	return s.inputs
}

// OutputNames returns the model's output tensor names.
func (s *Session) OutputNames() []string {
	return s.outputs
}

// Run executes the model with the given named int64 inputs and
// returns every output as a float tensor. Half-precision outputs are
// surfaced as raw bits for the caller to widen.
func (s *Session) Run(_ context.Context, inputs map[string]driven.Tensor) (map[string]driven.Tensor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return nil, errors.New("ort: session is closed")
	}

	names := make([]*C.char, 0, len(inputs))
	tensors := make([]C.OrtWrapperInput, 0, len(inputs))
	defer func() {
		for _, name := range names {
			C.free(unsafe.Pointer(name))
		}
	}()

	for name, tensor := range inputs {
		if tensor.I64 == nil {
			return nil, fmt.Errorf("ort: input %q must be int64", name)
		}
		cname := C.CString(name)
		names = append(names, cname)
		tensors = append(tensors, C.OrtWrapperInput{
			name:      cname,
			data:      (*C.int64_t)(unsafe.Pointer(&tensor.I64[0])),
			shape:     (*C.int64_t)(unsafe.Pointer(&tensor.Shape[0])),
			shape_len: C.int(len(tensor.Shape)),
		})
	}

	var results *C.OrtWrapperOutput
	count := C.ort_run(s.sess, &tensors[0], C.int(len(tensors)), &results)
	if count < 0 {
		return nil, fmt.Errorf("ort: inference failed: %s", C.GoString(C.ort_last_error(s.sess)))
	}
	defer C.ort_free_outputs(results, count)

	outputs := make(map[string]driven.Tensor, int(count))
	cResults := unsafe.Slice(results, int(count))

	for i := 0; i < int(count); i++ {
		out := cResults[i]

		shape := make([]int64, int(out.shape_len))
		cShape := unsafe.Slice(out.shape, int(out.shape_len))
		elems := 1
		for j := range shape {
			shape[j] = int64(cShape[j])
			elems *= int(shape[j])
		}

		tensor := driven.Tensor{Shape: shape}
		switch out.elem_type {
		case C.ORT_WRAPPER_F32:
			data := unsafe.Slice((*float32)(unsafe.Pointer(out.data)), elems)
			tensor.F32 = make([]float32, elems)
			copy(tensor.F32, data)
		case C.ORT_WRAPPER_F16:
			data := unsafe.Slice((*uint16)(unsafe.Pointer(out.data)), elems)
			tensor.F16 = make([]uint16, elems)
			copy(tensor.F16, data)
		default:
			return nil, fmt.Errorf("ort: output %q has unsupported element type", C.GoString(out.name))
		}

		outputs[C.GoString(out.name)] = tensor
	}

	return outputs, nil
}

// Close releases the session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess != nil {
		C.ort_close(s.sess)
		s.sess = nil
	}
	return nil
}
