package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/stagebuild/compiler/load"
)

func point() *load.Schema {
	return &load.Schema{
		Name:    "Point",
		Package: "geo",
		Fields: []*load.Field{
			{Name: "X", Type: "int", Pos: "point.go:4:2"},
			{Name: "Y", Type: "int", Pos: "point.go:5:2"},
		},
		Pos: "point.go:3:6",
	}
}

func TestBuilderName(t *testing.T) {
	name, err := BuilderName("Point")
	require.NoError(t, err)
	assert.Equal(t, "PointBuilder", name)

	_, err = BuilderName("point-x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIllegalIdentifier))
}

func TestFlagName(t *testing.T) {
	tests := []struct {
		field    string
		expected string
	}{
		{"x", "X_INIT"},
		{"Field1", "FIELD1_INIT"},
		{"parent_ref", "PARENT_REF_INIT"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			name, err := FlagName(tt.field)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, name)
		})
	}

	t.Run("illegal", func(t *testing.T) {
		_, err := FlagName("a-b")
		require.Error(t, err)
		assert.True(t, IsIdentifierError(err))
	})
}

func TestNewNames(t *testing.T) {
	t.Run("static", func(t *testing.T) {
		n, err := NewNames(nil, point())
		require.NoError(t, err)

		assert.Equal(t, "PointBuilder", n.Builder)
		assert.Equal(t, "NewPointBuilder", n.Constructor)
		assert.Equal(t, "BuildPoint", n.Finalizer)
		assert.Equal(t, "stagebuild", n.Runtime)
		require.Len(t, n.Fields, 2)
		assert.Equal(t, &FieldNames{
			Field:  "X",
			Flag:   "X_INIT",
			Setter: "PointBuilderX",
			Slot:   "_X",
			Pos:    "point.go:4:2",
		}, n.Fields[0])
		assert.Equal(t, []string{"PointBuilder", "NewPointBuilder", "PointBuilderX", "PointBuilderY", "BuildPoint"}, n.PackageLevel())
	})

	t.Run("checked", func(t *testing.T) {
		n, err := NewNames(MustNewConfig(WithMode(ModeChecked)), point())
		require.NoError(t, err)

		y := n.Field("Y")
		require.NotNil(t, y)
		assert.Equal(t, "Y", y.Setter)
		assert.Equal(t, "_Y", y.Slot)
		assert.Equal(t, "POINT_Y_INIT", y.Const)
		assert.Equal(t, []string{"PointBuilder", "NewPointBuilder", "POINT_X_INIT", "POINT_Y_INIT"}, n.PackageLevel())
	})

	t.Run("unexported record", func(t *testing.T) {
		s := point()
		s.Name = "point"
		s.Fields[0].Name = "x"
		n, err := NewNames(nil, s)
		require.NoError(t, err)

		assert.Equal(t, "pointBuilder", n.Builder)
		assert.Equal(t, "newPointBuilder", n.Constructor)
		assert.Equal(t, "buildPoint", n.Finalizer)
		assert.Equal(t, "pointBuilderX", n.Fields[0].Setter)
		assert.Equal(t, "X_INIT", n.Fields[0].Flag)
		assert.Equal(t, "_x", n.Fields[0].Slot)
	})

	t.Run("degenerate record", func(t *testing.T) {
		n, err := NewNames(nil, &load.Schema{Name: "Empty"})
		require.NoError(t, err)

		assert.Empty(t, n.Fields)
		assert.Equal(t, []string{"EmptyBuilder", "NewEmptyBuilder", "BuildEmpty"}, n.PackageLevel())
		assert.Nil(t, n.Field("X"))
	})

	t.Run("runtime import name", func(t *testing.T) {
		s := point()
		s.Imports = []*load.Import{{Name: "sb", Path: load.DefaultRuntimePkg}}
		n, err := NewNames(nil, s)
		require.NoError(t, err)
		assert.Equal(t, "sb", n.Runtime)
	})

	t.Run("custom runtime package", func(t *testing.T) {
		n, err := NewNames(MustNewConfig(WithRuntimePackage("example.com/x/rt")), point())
		require.NoError(t, err)
		assert.Equal(t, "rt", n.Runtime)
	})
}

func TestNewNamesCollisions(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		modify func(*load.Schema)
		ident  string
	}{
		{
			name:   "constructor declared next to the record",
			modify: func(s *load.Schema) { s.Scope = []string{"Point", "NewPointBuilder"} },
			ident:  "NewPointBuilder",
		},
		{
			name:   "builder declared next to the record",
			modify: func(s *load.Schema) { s.Scope = []string{"PointBuilder"} },
			ident:  "PointBuilder",
		},
		{
			name:   "finalizer declared next to the record",
			modify: func(s *load.Schema) { s.Scope = []string{"BuildPoint"} },
			ident:  "BuildPoint",
		},
		{
			name: "setters of two fields",
			modify: func(s *load.Schema) {
				s.Fields = append(s.Fields, &load.Field{Name: "x", Type: "int"})
			},
			ident: "PointBuilderX",
		},
		{
			name:   "setter declared next to the record",
			modify: func(s *load.Schema) { s.Scope = []string{"PointBuilderY"} },
			ident:  "PointBuilderY",
		},
		{
			name: "parameter named like the builder parameter",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "b"}}
			},
			ident: "b",
		},
		{
			name: "parameter named like the value parameter",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "value"}}
			},
			ident: "value",
		},
		{
			name: "parameter named like the runtime package",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "stagebuild", Scope: true}}
			},
			ident: "stagebuild",
		},
		{
			name: "parameter named like the record",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "Point"}}
			},
			ident: "Point",
		},
		{
			name: "flag named like a parameter",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "X_INIT"}}
			},
			ident: "X_INIT",
		},
		{
			name: "flag shadowing a field type",
			modify: func(s *load.Schema) {
				s.Fields[1].Type = "[]X_INIT"
			},
			ident: "X_INIT",
		},
		{
			name: "flag shadowing a constraint",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "T", Constraint: "Y_INIT"}}
			},
			ident: "Y_INIT",
		},
		{
			name: "flag shadowing a where clause",
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "T"}}
				s.Where = []*load.Constraint{{Param: "T", Expr: "interface{ X_INIT() }"}}
			},
			ident: "X_INIT",
		},
		{
			name: "checked constants",
			mode: ModeChecked,
			modify: func(s *load.Schema) {
				s.Scope = []string{"POINT_Y_INIT"}
			},
			ident: "POINT_Y_INIT",
		},
		{
			name: "checked local variable",
			mode: ModeChecked,
			modify: func(s *load.Schema) {
				s.Params = []*load.Param{{Name: "ok"}}
			},
			ident: "ok",
		},
		{
			name: "checked progress member",
			mode: ModeChecked,
			modify: func(s *load.Schema) {
				s.Fields[0].Name = "progress"
			},
			ident: "progress",
		},
		{
			name: "checked build method",
			mode: ModeChecked,
			modify: func(s *load.Schema) {
				s.Fields[0].Name = "Build"
			},
			ident: "Build",
		},
		{
			name: "checked slot and method",
			mode: ModeChecked,
			modify: func(s *load.Schema) {
				s.Fields[1].Name = "_X"
			},
			ident: "_X",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := point()
			tt.modify(s)
			cfg := defaultConfig()
			if tt.mode != "" {
				cfg.Mode = tt.mode
			}
			_, err := NewNames(cfg, s)

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalIdentifier))
			var identErr *IdentifierError
			require.True(t, errors.As(err, &identErr))
			assert.Equal(t, tt.ident, identErr.Ident)
		})
	}
}

func TestNewNamesAccepts(t *testing.T) {
	t.Run("checked mode has no flags", func(t *testing.T) {
		s := point()
		s.Params = []*load.Param{{Name: "X_INIT"}}
		_, err := NewNames(MustNewConfig(WithMode(ModeChecked)), s)
		assert.NoError(t, err)
	})

	t.Run("static mode allows p and ok", func(t *testing.T) {
		s := point()
		s.Params = []*load.Param{{Name: "p"}, {Name: "ok"}}
		_, err := NewNames(nil, s)
		assert.NoError(t, err)
	})

	t.Run("qualified identifiers do not shadow", func(t *testing.T) {
		s := point()
		s.Imports = []*load.Import{{Name: "geo", Path: "example.com/geo"}}
		s.Fields[1].Type = "geo.X_INIT"
		_, err := NewNames(nil, s)
		assert.NoError(t, err)
	})
}
