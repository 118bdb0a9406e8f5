package vm

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Workspace image: a CBOR snapshot of procedures, variables and properties
// ---------------------------------------------------------------------------

// ImageMagic identifies a workspace image.
const ImageMagic = "LOGO"

// ImageVersion is bumped when the image layout changes.
const ImageVersion uint = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Image is the serialised workspace. Values are kept as the Logo literal
// text save writes, so an image never refers to heap indices.
type Image struct {
	Magic      string           `cbor:"1,keyasint"`
	Version    uint             `cbor:"2,keyasint"`
	Procedures []ImageProcedure `cbor:"3,keyasint"`
	Globals    []ImageBinding   `cbor:"4,keyasint"`
	Properties []ImageProperty  `cbor:"5,keyasint"`
}

// ImageProcedure is one procedure with its body as source lines.
type ImageProcedure struct {
	Name   string   `cbor:"1,keyasint"`
	Params []string `cbor:"2,keyasint"`
	Lines  []string `cbor:"3,keyasint"`
}

// ImageBinding is one global variable.
type ImageBinding struct {
	Name    string `cbor:"1,keyasint"`
	Literal string `cbor:"2,keyasint"`
}

// ImageProperty is one property list entry.
type ImageProperty struct {
	Object  string `cbor:"1,keyasint"`
	Key     string `cbor:"2,keyasint"`
	Literal string `cbor:"3,keyasint"`
}

// Snapshot captures the workspace.
func (vm *VM) Snapshot() *Image {
	img := &Image{Magic: ImageMagic, Version: ImageVersion}
	for _, name := range vm.ProcedureNames() {
		p, _ := vm.Procedure(name)
		ip := ImageProcedure{Name: name}
		for _, param := range p.Params {
			ip.Params = append(ip.Params, vm.heap.Text(param))
		}
		for _, line := range vm.bodyLines(p.Body) {
			ip.Lines = append(ip.Lines, vm.formatLine(line))
		}
		img.Procedures = append(img.Procedures, ip)
	}
	for _, key := range vm.scopes.GlobalNames(vm.heap) {
		name, v, _ := vm.scopes.Global(key)
		img.Globals = append(img.Globals, ImageBinding{
			Name:    vm.heap.Text(name),
			Literal: vm.Literal(v),
		})
	}
	for _, pl := range vm.sortedPlists() {
		for _, p := range pl.props {
			img.Properties = append(img.Properties, ImageProperty{
				Object:  vm.heap.Text(pl.name),
				Key:     vm.heap.Text(p.name),
				Literal: vm.Literal(NodeToValue(p.value)),
			})
		}
	}
	return img
}

// SaveImage writes the workspace to w.
func (vm *VM) SaveImage(w io.Writer) error {
	img := vm.Snapshot()
	if err := cborEncMode.NewEncoder(w).Encode(img); err != nil {
		return fmt.Errorf("vm: encode image: %w", err)
	}
	log.Infof("image saved: %d procedures, %d globals", len(img.Procedures), len(img.Globals))
	return nil
}

// LoadImage reads an image from r and merges it into the workspace.
// Procedures and variables of the same name are replaced.
func (vm *VM) LoadImage(r io.Reader) error {
	var img Image
	if err := cbor.NewDecoder(r).Decode(&img); err != nil {
		return fmt.Errorf("vm: decode image: %w", err)
	}
	if img.Magic != ImageMagic {
		return fmt.Errorf("vm: not a workspace image (magic %q)", img.Magic)
	}
	if img.Version != ImageVersion {
		return fmt.Errorf("vm: unsupported image version %d", img.Version)
	}
	return vm.Restore(&img)
}

// Restore installs the contents of img.
func (vm *VM) Restore(img *Image) error {
	for _, ip := range img.Procedures {
		lists := make([]Node, 0, len(ip.Lines))
		for _, line := range ip.Lines {
			list, r := vm.parseInstruction(line)
			if r.status != StatusNone {
				return fmt.Errorf("vm: procedure %s: %s", ip.Name, FormatError(r.Err()))
			}
			lists = append(lists, list)
		}
		body, ok := vm.joinLines(lists)
		if !ok {
			return fmt.Errorf("vm: procedure %s: %s", ip.Name, ErrorTemplate(ErrOutOfSpace))
		}
		if r := vm.Define(ip.Name, ip.Params, body); r.status != StatusNone {
			return fmt.Errorf("vm: procedure %s: %s", ip.Name, FormatError(r.Err()))
		}
	}
	for _, b := range img.Globals {
		v, err := vm.literalValue(b.Literal)
		if err != nil {
			return fmt.Errorf("vm: variable %s: %w", b.Name, err)
		}
		vm.scopes.Make(vm.key(b.Name), vm.heap.Atom(b.Name), v)
	}
	for _, p := range img.Properties {
		v, err := vm.literalValue(p.Literal)
		if err != nil {
			return fmt.Errorf("vm: property %s %s: %w", p.Object, p.Key, err)
		}
		primPprop(vm, "pprop", []Value{vm.wordValue(p.Object), vm.wordValue(p.Key), v})
	}
	return nil
}

func (vm *VM) literalValue(text string) (Value, error) {
	r := vm.Eval(text)
	if r.status != StatusOK {
		if info := r.Err(); info != nil {
			return NoValue(), errors.New(FormatError(info))
		}
		return NoValue(), fmt.Errorf("literal %q has no value", text)
	}
	return r.value, nil
}
