// Package chunkfile implements the .chc compiled-library container (spec.md
// §6.2): a gob encoding of a compiler.Program tagged with the bytecode
// format version, so a stale .chc fails to load instead of misinterpreting
// bytes from an incompatible compiler.
package chunkfile

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/tomhrr/cosh/lang/compiler"
)

// wireChunk mirrors compiler.Chunk but drops the Prog back-pointer, which
// would otherwise make the object graph cyclic (Program -> Chunks ->
// Chunk.Prog -> same Program) and gob does not follow cycles.
type wireChunk struct {
	Kind        compiler.ChunkKind
	Name        string
	Code        []byte
	NumLocals   int
	NumCells    int
	Captures    []int
	MaxAccepted int
	MinRequired int
}

// wireProgram mirrors compiler.Program, replacing every *Chunk pointer with
// an index into Chunks so the graph serializes as a tree.
type wireProgram struct {
	Constants      []compiler.Constant
	Chunks         []wireChunk
	ToplevelIdx    int
	Builtins       []string
	Globals        []string
	GlobalChunkIdx []int
}

// File is the on-disk shape of a .chc container.
type File struct {
	Version int
	Program wireProgram
}

func toWire(prog *compiler.Program) wireProgram {
	idx := make(map[*compiler.Chunk]int, len(prog.Chunks))
	chunks := make([]wireChunk, len(prog.Chunks))
	for i, ch := range prog.Chunks {
		idx[ch] = i
		chunks[i] = wireChunk{
			Kind:        ch.Kind,
			Name:        ch.Name,
			Code:        ch.Code,
			NumLocals:   ch.NumLocals,
			NumCells:    ch.NumCells,
			Captures:    ch.Captures,
			MaxAccepted: ch.MaxAccepted,
			MinRequired: ch.MinRequired,
		}
	}
	globalIdx := make([]int, len(prog.GlobalChunks))
	for i, ch := range prog.GlobalChunks {
		globalIdx[i] = idx[ch]
	}
	return wireProgram{
		Constants:      prog.Constants,
		Chunks:         chunks,
		ToplevelIdx:    idx[prog.Toplevel],
		Builtins:       prog.Builtins,
		Globals:        prog.Globals,
		GlobalChunkIdx: globalIdx,
	}
}

func fromWire(w wireProgram) *compiler.Program {
	prog := &compiler.Program{
		Constants: w.Constants,
		Builtins:  w.Builtins,
		Globals:   w.Globals,
	}
	chunks := make([]*compiler.Chunk, len(w.Chunks))
	for i, wc := range w.Chunks {
		chunks[i] = &compiler.Chunk{
			Prog:        prog,
			Kind:        wc.Kind,
			Name:        wc.Name,
			Code:        wc.Code,
			NumLocals:   wc.NumLocals,
			NumCells:    wc.NumCells,
			Captures:    wc.Captures,
			MaxAccepted: wc.MaxAccepted,
			MinRequired: wc.MinRequired,
		}
	}
	prog.Chunks = chunks
	prog.Toplevel = chunks[w.ToplevelIdx]
	prog.GlobalChunks = make([]*compiler.Chunk, len(w.GlobalChunkIdx))
	for i, gi := range w.GlobalChunkIdx {
		prog.GlobalChunks[i] = chunks[gi]
	}
	return prog
}

// Write gob-encodes prog, tagged with the current compiler.Version, to path.
func Write(path string, prog *compiler.Program) error {
	var buf bytes.Buffer
	f := File{Version: compiler.Version, Program: toWire(prog)}
	if err := gob.NewEncoder(&buf).Encode(&f); err != nil {
		return fmt.Errorf("chunkfile: encode: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Read loads a .chc container from path. A version mismatch against the
// running compiler.Version is reported as an error; the caller decides
// whether to surface it as a ParseError.
func Read(path string) (*compiler.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("chunkfile: decode: %w", err)
	}
	if f.Version != compiler.Version {
		return nil, fmt.Errorf("chunkfile: %s was compiled with bytecode version %d, this binary requires %d", path, f.Version, compiler.Version)
	}
	return fromWire(f.Program), nil
}
