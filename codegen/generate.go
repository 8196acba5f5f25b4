package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"text/template"
)

// ExportImport is the import path of the runtime generated code calls into.
const ExportImport = "github.com/space-operator/space-go/export"

var exportsTemplate = template.Must(template.New("exports").Parse(`// Code generated by spacegen. DO NOT EDIT.

//go:build wasip1

package {{.Package}}

import "{{.Import}}"
{{range .Funcs}}
//go:wasmexport {{.ExportName}}
func spaceExport_{{.Name}}({{if .HasInput}}ptr{{else}}_{{end}} uint32) uint32 {
	return export.{{.Handler}}({{if .HasInput}}ptr, {{end}}{{.Name}})
}
{{end}}`))

// Generate returns formatted Go source wrapping each signature in a
// //go:wasmexport entry point. Every signature is validated first and all
// failures are reported together.
func Generate(pkg string, sigs []Signature) ([]byte, error) {
	if pkg == "" {
		return nil, errors.New("codegen: package name is required")
	}
	if len(sigs) == 0 {
		return nil, fmt.Errorf("codegen: package %s has no %s functions", pkg, Directive)
	}

	var errs []error
	seen := make(map[string]bool, len(sigs))
	for _, s := range sigs {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[s.ExportName()] {
			errs = append(errs, &SignatureError{Func: s.Name, Pos: s.Pos, Reason: fmt.Sprintf("duplicate export name %q", s.ExportName())})
		}
		seen[s.ExportName()] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	err := exportsTemplate.Execute(&buf, struct {
		Package string
		Import  string
		Funcs   []Signature
	}{Package: pkg, Import: ExportImport, Funcs: sigs})
	if err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: format generated source: %w", err)
	}
	return src, nil
}
