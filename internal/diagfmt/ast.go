package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"minisynth/internal/ast"
	"minisynth/internal/source"
)

// ASTNodeOutput is one node of the parse outline.
type ASTNodeOutput struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	Span     source.Span     `json:"span"`
	Text     string          `json:"text,omitempty"`
	Children []ASTNodeOutput `json:"children,omitempty"`
}

const outlineTextWidth = 60

type outliner struct {
	b  *ast.Builder
	fs *source.FileSet
}

// Outline summarizes the items of a parsed file: definitions, their
// declarations and top-level statements, with source text for expressions.
func Outline(b *ast.Builder, fileID ast.FileID, fs *source.FileSet) (ASTNodeOutput, error) {
	file := b.Files.Get(fileID)
	if file == nil {
		return ASTNodeOutput{}, fmt.Errorf("file %d not found", fileID)
	}
	o := outliner{b: b, fs: fs}
	root := ASTNodeOutput{Type: "File", Span: file.Span}
	if f := fs.Get(file.Span.File); f != nil {
		root.Name = f.DisplayPath(fs.BaseDir())
	}
	for _, id := range file.Items {
		root.Children = append(root.Children, o.item(id))
	}
	return root, nil
}

func (o outliner) text(sp source.Span) string {
	t := strings.Join(strings.Fields(o.fs.Text(sp)), " ")
	if runewidth.StringWidth(t) > outlineTextWidth {
		t = runewidth.Truncate(t, outlineTextWidth, "...")
	}
	return t
}

func (o outliner) exprText(id ast.ExprID) string {
	if !id.IsValid() {
		return ""
	}
	return o.text(o.b.Exprs.Get(id).Span)
}

func (o outliner) item(id ast.ItemID) ASTNodeOutput {
	it := o.b.Items.Get(id)
	node := ASTNodeOutput{Type: it.Kind.String(), Name: o.b.Name(it.Name), Span: it.Span}
	switch it.Kind {
	case ast.ItemFunction:
		fn, _ := o.b.Items.Function(id)
		node.Text = o.exprText(fn.RetType)
		node.Children = append(node.Children, o.params(fn.HasParams, fn.Params)...)
		node.Children = append(node.Children, o.args(fn.Args)...)
		node.Children = append(node.Children, o.body(fn.Body, fn.Short)...)
	case ast.ItemModule:
		m, _ := o.b.Items.Module(id)
		node.Children = append(node.Children, o.params(m.HasParams, m.Params)...)
		node.Children = append(node.Children, o.args(m.Args)...)
		for _, in := range m.Inputs {
			n := ASTNodeOutput{Type: "Input", Name: o.b.Name(in.Name), Span: in.Span, Text: o.exprText(in.Type)}
			if in.Default.IsValid() {
				n.Text += " = " + o.exprText(in.Default)
			}
			node.Children = append(node.Children, n)
		}
		for _, sub := range m.Submodules {
			node.Children = append(node.Children, ASTNodeOutput{Type: "Submodule", Name: o.b.Name(sub.Name), Span: sub.Span, Text: o.exprText(sub.Type)})
		}
		for _, st := range m.Stmts {
			node.Children = append(node.Children, o.stmt(st))
		}
		for _, fid := range m.Functions {
			node.Children = append(node.Children, o.item(fid))
		}
		for _, md := range m.Methods {
			n := ASTNodeOutput{Type: "Method", Name: o.b.Name(md.Name), Span: md.Span, Text: o.exprText(md.RetType)}
			n.Children = append(n.Children, o.args(md.Args)...)
			n.Children = append(n.Children, o.body(md.Body, md.Short)...)
			node.Children = append(node.Children, n)
		}
		for _, r := range m.Rules {
			n := ASTNodeOutput{Type: "Rule", Name: o.b.Name(r.Name), Span: r.Span}
			n.Children = o.body(r.Body, ast.NoExprID)
			node.Children = append(node.Children, n)
		}
	case ast.ItemTypedef:
		td, _ := o.b.Items.Typedef(id)
		node.Children = append(node.Children, o.params(td.HasParams, td.Params)...)
		switch td.Kind {
		case ast.TypedefSynonym:
			node.Text = o.exprText(td.Type)
		case ast.TypedefStruct:
			node.Text = "struct"
			for _, f := range td.Fields {
				node.Children = append(node.Children, ASTNodeOutput{Type: "Field", Name: o.b.Name(f.Name), Span: f.Span, Text: o.exprText(f.Type)})
			}
		case ast.TypedefEnum:
			names := make([]string, len(td.Members))
			for i, m := range td.Members {
				names[i] = o.b.Name(m)
			}
			node.Text = "enum {" + strings.Join(names, ", ") + "}"
		}
	case ast.ItemConst:
		c, _ := o.b.Items.Const(id)
		node.Children = append(node.Children, o.stmt(c.Stmt))
	case ast.ItemImport:
		imp, _ := o.b.Items.Import(id)
		node.Text = strings.Join(imp.Paths, ", ")
	}
	return node
}

func (o outliner) params(has bool, ps []ast.ParamFormal) []ASTNodeOutput {
	if !has {
		return nil
	}
	out := make([]ASTNodeOutput, 0, len(ps))
	for _, p := range ps {
		n := ASTNodeOutput{Type: "Param", Span: p.Span}
		switch p.Kind {
		case ast.ParamInteger:
			n.Name, n.Text = o.b.Name(p.Name), "Integer"
		case ast.ParamType:
			n.Name, n.Text = o.b.Name(p.Name), "type"
		case ast.ParamFixed:
			n.Text = o.exprText(p.Expr)
		}
		out = append(out, n)
	}
	return out
}

func (o outliner) args(as []ast.ArgFormal) []ASTNodeOutput {
	out := make([]ASTNodeOutput, 0, len(as))
	for _, a := range as {
		out = append(out, ASTNodeOutput{Type: "Arg", Name: o.b.Name(a.Name), Span: a.Span, Text: o.exprText(a.Type)})
	}
	return out
}

func (o outliner) body(stmts []ast.StmtID, short ast.ExprID) []ASTNodeOutput {
	if short.IsValid() {
		return []ASTNodeOutput{{Type: "Return", Span: o.b.Exprs.Get(short).Span, Text: o.exprText(short)}}
	}
	out := make([]ASTNodeOutput, 0, len(stmts))
	for _, st := range stmts {
		out = append(out, o.stmt(st))
	}
	return out
}

func (o outliner) stmt(id ast.StmtID) ASTNodeOutput {
	st := o.b.Stmts.Get(id)
	return ASTNodeOutput{Type: st.Kind.String(), Span: st.Span, Text: o.text(st.Span)}
}

// FormatASTPretty prints the outline as a tree.
func FormatASTPretty(w io.Writer, b *ast.Builder, fileID ast.FileID, fs *source.FileSet) error {
	root, err := Outline(b, fileID, fs)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, outlineLabel(root, fs)); err != nil {
		return err
	}
	return writeTree(w, root.Children, "", fs)
}

func writeTree(w io.Writer, nodes []ASTNodeOutput, prefix string, fs *source.FileSet) error {
	for i, n := range nodes {
		branch, next := "├─ ", "│  "
		if i == len(nodes)-1 {
			branch, next = "└─ ", "   "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, outlineLabel(n, fs)); err != nil {
			return err
		}
		if err := writeTree(w, n.Children, prefix+next, fs); err != nil {
			return err
		}
	}
	return nil
}

func outlineLabel(n ASTNodeOutput, fs *source.FileSet) string {
	label := n.Type
	if n.Name != "" {
		label += " " + n.Name
	}
	if n.Text != "" {
		label += ": " + n.Text
	}
	start, _ := fs.Resolve(n.Span)
	return fmt.Sprintf("%s (%d:%d)", label, start.Line, start.Col)
}

// FormatASTJSON writes the outline as indented JSON.
func FormatASTJSON(w io.Writer, b *ast.Builder, fileID ast.FileID, fs *source.FileSet) error {
	root, err := Outline(b, fileID, fs)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(root)
}
