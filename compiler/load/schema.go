package load

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultRuntimePkg is the import path of the runtime package referenced by
// generated builders and by scope parameter constraints.
const DefaultRuntimePkg = "github.com/syssam/stagebuild"

// Schema describes one record type a builder is generated for. It is
// produced by the extractors of this package and is not modified afterwards.
type Schema struct {
	// Kind of the described type. Only "struct" (or empty) is supported.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Name of the record type.
	Name string `json:"name" yaml:"name"`
	// Package is the name of the package declaring the record.
	Package string `json:"package,omitempty" yaml:"package,omitempty"`
	// Exported reports the visibility of the record. It is derived from
	// Name by Validate.
	Exported bool `json:"-" yaml:"-"`
	// Imports available to the type expressions of the schema.
	Imports []*Import `json:"imports,omitempty" yaml:"imports,omitempty"`
	// Params holds the generic parameters in declaration order.
	Params []*Param `json:"params,omitempty" yaml:"params,omitempty"`
	// Where holds additional constraints on the type parameters.
	Where []*Constraint `json:"where,omitempty" yaml:"where,omitempty"`
	// Fields in declaration order.
	Fields []*Field `json:"fields,omitempty" yaml:"fields,omitempty"`
	// Scope lists the package-level identifiers declared next to the record.
	Scope []string `json:"scope,omitempty" yaml:"scope,omitempty"`
	// Pos is the position of the record definition.
	Pos string `json:"-" yaml:"-"`
	// Source is the file the schema was extracted from.
	Source string `json:"-" yaml:"-"`
}

// Import is a package available to type expressions under a local name.
type Import struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Path string `json:"path" yaml:"path"`
}

// Param is a generic parameter of a record.
type Param struct {
	Name string `json:"name" yaml:"name"`
	// Scope reports a scope parameter, a phantom parameter constrained by
	// stagebuild.Scope.
	Scope bool `json:"scope,omitempty" yaml:"scope,omitempty"`
	// Within names the scope parameter that contains this one.
	Within string `json:"within,omitempty" yaml:"within,omitempty"`
	// Constraint of a type parameter. Empty means any.
	Constraint string `json:"constraint,omitempty" yaml:"constraint,omitempty"`
	Pos        string `json:"-" yaml:"-"`
}

// Constraint is one entry of a where-clause: an extra constraint on a type
// parameter.
type Constraint struct {
	Param string `json:"param" yaml:"param"`
	Expr  string `json:"expr" yaml:"expr"`
	Pos   string `json:"-" yaml:"-"`
}

// Field is a named field of a record.
type Field struct {
	Name string `json:"name" yaml:"name"`
	// Type is the Go type expression of the field.
	Type string `json:"type" yaml:"type"`
	// Doc holds the documentation of the field. Comments read from Go source
	// keep their markers ("// text", "/* text */"); lines without a marker
	// are plain text and become line comments.
	Doc []string `json:"doc,omitempty" yaml:"doc,omitempty"`
	Pos string   `json:"-" yaml:"-"`
}

// ScopeParams returns the scope parameters in declaration order.
func (s *Schema) ScopeParams() []*Param {
	var ps []*Param
	for _, p := range s.Params {
		if p.Scope {
			ps = append(ps, p)
		}
	}
	return ps
}

// TypeParams returns the type parameters in declaration order.
func (s *Schema) TypeParams() []*Param {
	var ps []*Param
	for _, p := range s.Params {
		if !p.Scope {
			ps = append(ps, p)
		}
	}
	return ps
}

// Param returns the parameter with the given name, or nil.
func (s *Schema) Param(name string) *Param {
	for _, p := range s.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Validate checks that the schema describes a plain record with named,
// unique fields, and derives Exported.
func (s *Schema) Validate() error {
	if s.Kind != "" && s.Kind != "struct" {
		return NewShapeError(ErrUnsupportedShape, s.Name, "", s.Pos, fmt.Sprintf("kind %q is not a struct", s.Kind))
	}
	if !token.IsIdentifier(s.Name) {
		return NewShapeError(ErrUnsupportedShape, s.Name, "", s.Pos, "record name is not an identifier")
	}
	s.Exported = token.IsExported(s.Name)
	params := make(map[string]*Param, len(s.Params))
	for _, p := range s.Params {
		if !token.IsIdentifier(p.Name) {
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(p.Pos, s.Pos), fmt.Sprintf("parameter %q is not an identifier", p.Name))
		}
		if _, ok := params[p.Name]; ok {
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(p.Pos, s.Pos), fmt.Sprintf("duplicate parameter %q", p.Name))
		}
		params[p.Name] = p
	}
	for _, p := range s.Params {
		switch {
		case !p.Scope && p.Within != "":
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(p.Pos, s.Pos), fmt.Sprintf("type parameter %q cannot be contained by a scope", p.Name))
		case p.Scope && p.Constraint != "":
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(p.Pos, s.Pos), fmt.Sprintf("scope parameter %q cannot have a type constraint", p.Name))
		case p.Within != "":
			if outer := params[p.Within]; outer == nil || !outer.Scope || outer == p {
				return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(p.Pos, s.Pos), fmt.Sprintf("scope parameter %q is contained by unknown scope %q", p.Name, p.Within))
			}
		case p.Constraint != "":
			if _, err := parser.ParseExpr(p.Constraint); err != nil {
				return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(p.Pos, s.Pos), fmt.Sprintf("invalid constraint for %q: %v", p.Name, err))
			}
		}
	}
	for _, c := range s.Where {
		p := params[c.Param]
		switch {
		case p == nil:
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(c.Pos, s.Pos), fmt.Sprintf("where-clause names unknown type parameter %q", c.Param))
		case p.Scope:
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(c.Pos, s.Pos), fmt.Sprintf("where-clause cannot constrain scope parameter %q", c.Param))
		}
		if _, err := parser.ParseExpr(c.Expr); err != nil {
			return NewShapeError(ErrUnsupportedShape, s.Name, "", posOr(c.Pos, s.Pos), fmt.Sprintf("invalid where-clause for %q: %v", c.Param, err))
		}
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		pos := posOr(f.Pos, s.Pos)
		switch {
		case f.Name == "":
			return NewShapeError(ErrUnsupportedFieldShape, s.Name, fmt.Sprintf("#%d", i), pos, "only named fields are supported")
		case !token.IsIdentifier(f.Name) || f.Name == "_":
			return NewShapeError(ErrUnsupportedFieldShape, s.Name, f.Name, pos, "field name is not an identifier")
		}
		if _, ok := seen[f.Name]; ok {
			return NewShapeError(ErrDuplicateField, s.Name, f.Name, pos, "")
		}
		seen[f.Name] = struct{}{}
		if _, err := parser.ParseExpr(f.Type); err != nil {
			return NewShapeError(ErrUnsupportedFieldShape, s.Name, f.Name, pos, fmt.Sprintf("invalid type %q: %v", f.Type, err))
		}
	}
	for _, im := range s.Imports {
		if im.Path == "" {
			return NewShapeError(ErrUnsupportedShape, s.Name, "", s.Pos, "import without path")
		}
		if im.Name == "" {
			im.Name = PackageName(im.Path)
		}
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Schema and records the
// position of the document.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	type plain Schema
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	s.Pos = nodePos(node)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Field and records its position.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	type plain Field
	if err := node.Decode((*plain)(f)); err != nil {
		return err
	}
	f.Pos = nodePos(node)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Param and records its position.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	type plain Param
	if err := node.Decode((*plain)(p)); err != nil {
		return err
	}
	p.Pos = nodePos(node)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for Constraint and records its position.
func (c *Constraint) UnmarshalYAML(node *yaml.Node) error {
	type plain Constraint
	if err := node.Decode((*plain)(c)); err != nil {
		return err
	}
	c.Pos = nodePos(node)
	return nil
}

// MarshalSchema encodes the schema into a JSON document that can be decoded
// by UnmarshalSchema.
func MarshalSchema(s *Schema) ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSchema decodes and validates one schema document. JSON documents
// are accepted as well, being valid YAML.
func UnmarshalSchema(buf []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(buf, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ReadSchemaFile decodes every schema document of a YAML stream. Documents
// that fail validation are reported in the returned error; the valid ones
// are still returned.
func ReadSchemaFile(path string) ([]*Schema, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var (
		schemas []*Schema
		errs    []error
		dec     = yaml.NewDecoder(bytes.NewReader(buf))
	)
	for {
		s := &Schema{}
		err := dec.Decode(s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return schemas, fmt.Errorf("read schema %s: %w", path, err)
		}
		s.Source = path
		s.Pos = path + ":" + s.Pos
		for _, f := range s.Fields {
			f.Pos = path + ":" + f.Pos
		}
		for _, p := range s.Params {
			p.Pos = path + ":" + p.Pos
		}
		for _, c := range s.Where {
			c.Pos = path + ":" + c.Pos
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		schemas = append(schemas, s)
	}
	return schemas, errors.Join(errs...)
}

// PackageName guesses the package name of an import path the way most
// packages are named: the last path element without a major version suffix,
// a "go-" prefix or a dotted suffix.
func PackageName(path string) string {
	elems := strings.Split(path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	name = strings.TrimPrefix(name, "go-")
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return strings.ReplaceAll(name, "-", "")
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func nodePos(node *yaml.Node) string {
	return fmt.Sprintf("%d:%d", node.Line, node.Column)
}

func posOr(pos, fallback string) string {
	if pos != "" {
		return pos
	}
	return fallback
}
