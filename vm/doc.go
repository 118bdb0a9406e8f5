// Package vm implements a Logo workspace interpreter.
//
// This package contains:
//   - the node heap: cons cells, interned atoms and mark-sweep collection
//   - Value and Result, the values and control-flow outcomes of evaluation
//   - variable scopes kept in a frame arena
//   - the reader and the run-parser that splits infix operators out of words
//   - the evaluator, with procedures, primitives and the top-level loop
//   - the error table and message formatting
//   - save, load and the CBOR workspace image
package vm
