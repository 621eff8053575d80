// Command ffi builds the C-ABI shared library spec §6 specifies: a
// stateless, opaque-handle wrapper over engine.Engine / engine.QueryResult
// meant to be built with `go build -buildmode=c-shared`, not run directly.
//
// Grounded on original_source/src/ffi.rs's handle-table shape
// (pivot_engine_new/_free/_execute, pivot_result_row_count/_column_count/
// _column_name/_value/_free, one function per Rust extern "C" fn) but
// translated to Go's handle idiom: the Rust side boxes an engine/result and
// leaks the raw pointer as the opaque handle, which Go cannot do safely
// (passing a live Go pointer across the cgo boundary and back violates
// cgo's pointer-passing rules). Each handle here is instead a uuid.New()
// value folded to a uint64 key into a package-level registry, so the value
// that crosses the C ABI is a plain integer rather than a pointer. Not
// thread-safe, matching the source.
package main

/*
#include <stdint.h>
*/
import "C"

import (
	"sync"

	"github.com/google/uuid"
	"github.com/vegasq/memsql/engine"
)

var (
	mu      sync.Mutex
	engines = map[uint64]*engine.Engine{}
	results = map[uint64]*engine.QueryResult{}
)

// newHandle folds a fresh uuid.UUID down to a uint64 registry key. A
// collision would silently overwrite another live handle's slot; at
// uuid.New()'s randomness this is far less likely than hardware failure,
// so it is not guarded against.
func newHandle() uint64 {
	id := uuid.New()
	var h uint64
	for i := 0; i < 8; i++ {
		h = h<<8 | uint64(id[i]^id[i+8])
	}
	return h
}

// pivot_engine_new creates a fresh, empty Engine and returns a handle to
// it. The caller owns the handle and must release it with
// pivot_engine_free.
//
//export pivot_engine_new
func pivot_engine_new() C.uint64_t {
	mu.Lock()
	defer mu.Unlock()
	h := newHandle()
	engines[h] = engine.New()
	return C.uint64_t(h)
}

// pivot_engine_free releases an engine handle. An unknown handle is a
// no-op.
//
//export pivot_engine_free
func pivot_engine_free(handle C.uint64_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(engines, uint64(handle))
}

// pivot_engine_execute runs sqlText against the engine named by handle and
// returns a result handle, or 0 on any parse/execution error or unknown
// engine handle (mirroring the source's null-on-error return).
//
//export pivot_engine_execute
func pivot_engine_execute(handle C.uint64_t, sqlText *C.char) C.uint64_t {
	if sqlText == nil {
		return 0
	}
	mu.Lock()
	eng, ok := engines[uint64(handle)]
	mu.Unlock()
	if !ok {
		return 0
	}
	res, err := eng.Execute(C.GoString(sqlText))
	if err != nil {
		return 0
	}
	mu.Lock()
	defer mu.Unlock()
	h := newHandle()
	results[h] = res
	return C.uint64_t(h)
}

// pivot_result_row_count returns a result's row count, or 0 for an unknown
// handle.
//
//export pivot_result_row_count
func pivot_result_row_count(handle C.uint64_t) C.int {
	mu.Lock()
	defer mu.Unlock()
	res, ok := results[uint64(handle)]
	if !ok {
		return 0
	}
	return C.int(res.RowCount())
}

// pivot_result_column_count returns a result's column count, or 0 for an
// unknown handle.
//
//export pivot_result_column_count
func pivot_result_column_count(handle C.uint64_t) C.int {
	mu.Lock()
	defer mu.Unlock()
	res, ok := results[uint64(handle)]
	if !ok {
		return 0
	}
	return C.int(res.ColumnCount())
}

// pivot_result_column_name returns the name of column col, as a C string
// the caller owns and must release with the C library's free(), or NULL if
// handle or col is out of range.
//
//export pivot_result_column_name
func pivot_result_column_name(handle C.uint64_t, col C.int) *C.char {
	mu.Lock()
	res, ok := results[uint64(handle)]
	mu.Unlock()
	if !ok || col < 0 || int(col) >= res.ColumnCount() {
		return nil
	}
	return C.CString(res.Columns()[int(col)])
}

// pivot_result_value returns the scalar at (row, col) rendered per spec
// §7's textual forms, as a C string the caller owns and must release with
// free(), or NULL if handle, row, or col is out of range.
//
//export pivot_result_value
func pivot_result_value(handle C.uint64_t, row, col C.int) *C.char {
	mu.Lock()
	res, ok := results[uint64(handle)]
	mu.Unlock()
	if !ok || row < 0 || col < 0 || int(row) >= res.RowCount() || int(col) >= res.ColumnCount() {
		return nil
	}
	v := res.Get(int(row), int(col))
	return C.CString(v.String())
}

// pivot_result_free releases a result handle. An unknown handle is a
// no-op.
//
//export pivot_result_free
func pivot_result_free(handle C.uint64_t) {
	mu.Lock()
	defer mu.Unlock()
	delete(results, uint64(handle))
}

func main() {}
