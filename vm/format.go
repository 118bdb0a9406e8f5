package vm

import (
	"strings"
)

// ---------------------------------------------------------------------------
// Printing values
// ---------------------------------------------------------------------------

// Print renders v as print does: a list loses its outer brackets.
func (vm *VM) Print(v Value) string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindWord:
		return vm.heap.Text(v.node)
	case KindList:
		var sb strings.Builder
		vm.writeItems(&sb, v.node, false)
		return sb.String()
	}
	return ""
}

// Show renders v as show does: lists keep their brackets.
func (vm *VM) Show(v Value) string {
	if v.kind == KindList {
		var sb strings.Builder
		sb.WriteByte('[')
		vm.writeItems(&sb, v.node, false)
		sb.WriteByte(']')
		return sb.String()
	}
	return vm.Print(v)
}

func (vm *VM) writeItems(sb *strings.Builder, list Node, source bool) {
	first := true
	for n := list; n.IsPair(); n = vm.heap.Cdr(n) {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		vm.writeElement(sb, vm.heap.Car(n), source)
	}
}

func (vm *VM) writeElement(sb *strings.Builder, n Node, source bool) {
	if n.IsAtom() {
		if source {
			sb.WriteString(sourceWord(vm.heap.Text(n)))
		} else {
			sb.WriteString(vm.heap.Text(n))
		}
		return
	}
	sb.WriteByte('[')
	vm.writeItems(sb, n, source)
	sb.WriteByte(']')
}

// formatBodyElement renders one element of a procedure body. Nil renders as
// nothing: at this level it marks an absent element, not an empty list.
func (vm *VM) formatBodyElement(n Node) string {
	if n == Nil {
		return ""
	}
	var sb strings.Builder
	vm.writeElement(&sb, n, true)
	return sb.String()
}

// ---------------------------------------------------------------------------
// Source form, as written by save and po
// ---------------------------------------------------------------------------

// sourceWord renders word text so the reader gives the same word back.
func sourceWord(text string) string {
	if text == "" {
		return "||"
	}
	if !strings.ContainsAny(text, " \t\r\n[]|;\\") {
		return text
	}
	prefix := ""
	if text[0] == '"' || text[0] == ':' {
		prefix, text = text[:1], text[1:]
	}
	if !strings.ContainsRune(text, '|') {
		return prefix + "|" + text + "|"
	}
	var sb strings.Builder
	sb.WriteString(prefix)
	for _, r := range text {
		if strings.ContainsRune(" \t\r\n[]|;\\", r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Literal renders v as an expression that evaluates back to v. A word is
// left unquoted only when it is already the canonical text of its number.
func (vm *VM) Literal(v Value) string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindWord:
		text := vm.heap.Text(v.node)
		if f, ok := ParseNumber(text); ok && FormatNumber(f) == text {
			return text
		}
		return `"` + sourceWord(text)
	case KindList:
		var sb strings.Builder
		sb.WriteByte('[')
		vm.writeItems(&sb, v.node, true)
		sb.WriteByte(']')
		return sb.String()
	}
	return ""
}

// bodyLines splits a flat procedure body at the newline markers.
func (vm *VM) bodyLines(body Node) [][]Node {
	lines := [][]Node{nil}
	for n := body; n.IsPair(); n = vm.heap.Cdr(n) {
		item := vm.heap.Car(n)
		if item == vm.newline {
			lines = append(lines, nil)
			continue
		}
		lines[len(lines)-1] = append(lines[len(lines)-1], item)
	}
	if len(lines) == 1 && lines[0] == nil {
		return nil
	}
	return lines
}

func (vm *VM) formatLine(items []Node) string {
	parts := make([]string, len(items))
	for i, n := range items {
		parts[i] = vm.formatBodyElement(n)
		if n == Nil {
			parts[i] = "[]"
		}
	}
	return strings.Join(parts, " ")
}

// procedureTitle renders the "to name :a :b" line.
func (vm *VM) procedureTitle(p *Procedure) string {
	var sb strings.Builder
	sb.WriteString("to ")
	sb.WriteString(sourceWord(vm.heap.Text(p.Name)))
	for _, param := range p.Params {
		sb.WriteString(" :")
		sb.WriteString(sourceWord(vm.heap.Text(param)))
	}
	return sb.String()
}

// ProcedureText renders p as a definition that load reads back.
func (vm *VM) ProcedureText(p *Procedure) string {
	var sb strings.Builder
	sb.WriteString(vm.procedureTitle(p))
	sb.WriteByte('\n')
	for _, line := range vm.bodyLines(p.Body) {
		if len(line) > 0 {
			sb.WriteString("  ")
			sb.WriteString(vm.formatLine(line))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("end\n")
	return sb.String()
}

// WorkspaceText renders every procedure, variable and property as source:
// procedures in name order, then make lines, then pprop lines.
func (vm *VM) WorkspaceText() string {
	var sb strings.Builder
	for _, name := range vm.ProcedureNames() {
		p, _ := vm.Procedure(name)
		sb.WriteString(vm.ProcedureText(p))
		sb.WriteByte('\n')
	}
	for _, key := range vm.scopes.GlobalNames(vm.heap) {
		name, v, _ := vm.scopes.Global(key)
		sb.WriteString(`make "` + sourceWord(vm.heap.Text(name)) + " " + vm.Literal(v) + "\n")
	}
	for _, pl := range vm.sortedPlists() {
		obj := `"` + sourceWord(vm.heap.Text(pl.name))
		for _, p := range pl.props {
			sb.WriteString("pprop " + obj + ` "` + sourceWord(vm.heap.Text(p.name)) + " " +
				vm.Literal(NodeToValue(p.value)) + "\n")
		}
	}
	return sb.String()
}
