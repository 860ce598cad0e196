package liberty

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// WriteFile serializes one top-level group to a file.
func WriteFile(path string, g *Group) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, g); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Write serializes a group and everything under it as Liberty text.
// Output is deterministic: statements appear in tree order with two-space
// indentation, so writing an unmodified tree twice yields identical bytes.
func Write(w io.Writer, g *Group) error {
	bw := bufio.NewWriter(w)
	writeGroup(bw, g, 0)
	return bw.Flush()
}

func writeGroup(w *bufio.Writer, g *Group, depth int) {
	indent := strings.Repeat("  ", depth)
	w.WriteString(indent)
	w.WriteString(g.typ)
	w.WriteString(" (")
	for i, n := range g.names {
		if i > 0 {
			w.WriteString(", ")
		}
		writeValue(w, n)
	}
	w.WriteString(") {\n")

	for _, a := range g.attrs {
		writeAttr(w, a, depth+1)
	}
	for _, sub := range g.groups {
		writeGroup(w, sub, depth+1)
	}

	w.WriteString(indent)
	w.WriteString("}\n")
}

func writeAttr(w *bufio.Writer, a *Attr, depth int) {
	indent := strings.Repeat("  ", depth)
	w.WriteString(indent)
	w.WriteString(a.name)

	if a.kind == SimpleAttr {
		w.WriteString(" : ")
		writeValue(w, a.simple)
		w.WriteString(";\n")
		return
	}

	// Complex attribute. Value blocks with several quoted rows are laid
	// out one row per line with continuations, the usual Liberty shape.
	w.WriteString(" (")
	if multiRow(a.values) {
		w.WriteString(" \\\n")
		for i, v := range a.values {
			w.WriteString(indent)
			w.WriteString("  ")
			writeValue(w, v)
			if i+1 < len(a.values) {
				w.WriteString(",")
			}
			w.WriteString(" \\\n")
		}
		w.WriteString(indent)
	} else {
		for i, v := range a.values {
			if i > 0 {
				w.WriteString(", ")
			}
			writeValue(w, v)
		}
	}
	w.WriteString(");\n")
}

// multiRow reports whether a complex value list should be written one value
// per line: two or more values, all quoted strings.
func multiRow(vals []Value) bool {
	if len(vals) < 2 {
		return false
	}
	for _, v := range vals {
		if v.Kind != StringValue {
			return false
		}
	}
	return true
}

func writeValue(w *bufio.Writer, v Value) {
	switch v.Kind {
	case StringValue:
		w.WriteByte('"')
		w.WriteString(escapeString(v.Str))
		w.WriteByte('"')
	default:
		w.WriteString(v.Text())
	}
}

// escapeString escapes quotes and backslashes, and renders embedded
// newlines as in-string continuations.
func escapeString(s string) string {
	if !strings.ContainsAny(s, "\"\\\n") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString("\\\n")
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
