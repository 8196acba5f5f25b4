package codegen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directive marks a function for export.
const Directive = "//space:export"

// OutputFile is the name of the generated file. ParseDir skips it.
const OutputFile = "space_exports.go"

// ParseFile parses Go source and returns its package name and the
// signatures of annotated functions. src follows go/parser.ParseFile: nil
// reads filename from disk.
func ParseFile(filename string, src any) (string, []Signature, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return "", nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	var sigs []Signature
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok {
			continue
		}
		name, ok := directive(fn.Doc)
		if !ok {
			continue
		}
		sigs = append(sigs, signatureOf(fset, fn, name))
	}
	return file.Name.Name, sigs, nil
}

// ParseDir parses the non-test Go files of a package directory. All files
// must belong to one package and export names must be unique.
func ParseDir(dir string) (string, []Signature, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", nil, err
	}

	var (
		pkg  string
		sigs []Signature
	)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") || name == OutputFile {
			continue
		}
		filePkg, fileSigs, err := ParseFile(filepath.Join(dir, name), nil)
		if err != nil {
			return "", nil, err
		}
		if pkg != "" && filePkg != pkg {
			return "", nil, fmt.Errorf("%s: found packages %s and %s", dir, pkg, filePkg)
		}
		pkg = filePkg
		sigs = append(sigs, fileSigs...)
	}
	if pkg == "" {
		return "", nil, fmt.Errorf("%s: no Go files", dir)
	}

	sort.Slice(sigs, func(i, j int) bool { return sigs[i].ExportName() < sigs[j].ExportName() })
	for i := 1; i < len(sigs); i++ {
		if sigs[i].ExportName() == sigs[i-1].ExportName() {
			return "", nil, fmt.Errorf("duplicate export %q (%s, %s)", sigs[i].ExportName(), sigs[i-1].Pos, sigs[i].Pos)
		}
	}
	return pkg, sigs, nil
}

// directive reports whether doc carries the export directive and returns
// the explicit export name, if any. Directives are not part of
// CommentGroup.Text, so the raw comments are scanned.
func directive(doc *ast.CommentGroup) (string, bool) {
	if doc == nil {
		return "", false
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, Directive)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue // e.g. //space:exports
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}

func signatureOf(fset *token.FileSet, fn *ast.FuncDecl, export string) Signature {
	sig := Signature{
		Name:    fn.Name.Name,
		Export:  export,
		BodyLen: -1,
		Pos:     fset.Position(fn.Pos()).String(),
	}
	if fn.Body != nil {
		sig.BodyLen = len(fn.Body.List)
	}
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.Receiver = types.ExprString(fn.Recv.List[0].Type)
	}
	if fn.Type.TypeParams != nil {
		for _, f := range fn.Type.TypeParams.List {
			for _, n := range f.Names {
				sig.TypeParams = append(sig.TypeParams, n.Name)
			}
		}
	}
	for _, f := range fn.Type.Params.List {
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			sig.Params = append(sig.Params, Param{Type: typ})
			continue
		}
		for _, n := range f.Names {
			sig.Params = append(sig.Params, Param{Name: n.Name, Type: typ})
		}
	}
	if fn.Type.Results != nil {
		for _, f := range fn.Type.Results.List {
			typ := types.ExprString(f.Type)
			for range max(len(f.Names), 1) {
				sig.Results = append(sig.Results, typ)
			}
		}
	}
	return sig
}
