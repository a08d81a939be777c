package driver

import (
	"fortio.org/safecast"

	"minisynth/internal/ast"
	"minisynth/internal/diag"
	"minisynth/internal/lexer"
	"minisynth/internal/parser"
	"minisynth/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Builder *ast.Builder
	FileID  ast.FileID
	Bag     *diag.Bag
}

// Parse loads and parses the file at path into a fresh arena.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	bag := diag.NewBag(maxDiagnostics)
	b, file, err := parseInto(fs, fileID, bag)
	if err != nil {
		return nil, err
	}
	return &ParseResult{
		FileSet: fs,
		File:    fs.Get(fileID),
		Builder: b,
		FileID:  file,
		Bag:     bag,
	}, nil
}

// parseInto lexes and parses one file of fs, reporting into bag.
func parseInto(fs *source.FileSet, id source.FileID, bag *diag.Bag) (*ast.Builder, ast.FileID, error) {
	maxErrors, err := safecast.Conv[uint](bag.Cap())
	if err != nil {
		return nil, ast.NoFileID, err
	}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	lx := lexer.New(fs.Get(id), lexer.Options{Reporter: rep})
	b := ast.NewBuilder(ast.Hints{}, nil)
	res := parser.ParseFile(lx, b, parser.Options{Reporter: rep, MaxErrors: maxErrors})
	return b, res.File, nil
}
