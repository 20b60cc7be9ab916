package load

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPackage(t *testing.T) {
	if testing.Short() {
		t.Skip("loading packages runs the go command")
	}
	ctx := context.Background()

	t.Run("Valid", func(t *testing.T) {
		schemas, err := LoadPackage(ctx, "./testdata/valid", Options{})
		require.NoError(t, err)
		require.Len(t, schemas, 2)
		assert.Equal(t, "Event", schemas[0].Name)
		assert.Equal(t, "Empty", schemas[1].Name)
		assert.Contains(t, schemas[0].Source, "records.go")
		assert.Equal(t, "S", schemas[0].Params[1].Within)
		require.Len(t, schemas[0].Imports, 2)
		assert.Equal(t, "stagebuild", PackageName(schemas[0].Imports[1].Path))
		assert.Equal(t, "sb", schemas[0].Imports[1].Name)
	})

	t.Run("Failure", func(t *testing.T) {
		schemas, err := LoadPackage(ctx, "./testdata/failure", Options{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedShape))
		require.Len(t, schemas, 1)
		assert.Equal(t, "Good", schemas[0].Name)
	})

	t.Run("Build flags", func(t *testing.T) {
		schemas, err := LoadPackage(ctx, "./testdata/buildflags", Options{})
		require.NoError(t, err)
		require.Len(t, schemas, 1)
		assert.Equal(t, "Point", schemas[0].Name)

		schemas, err = LoadPackage(ctx, "./testdata/buildflags", Options{BuildFlags: []string{"-tags=tagged"}})
		require.NoError(t, err)
		require.Len(t, schemas, 2)
		assert.Equal(t, []string{"Point", "Tagged"}, []string{schemas[0].Name, schemas[1].Name})
	})

	t.Run("Unknown type", func(t *testing.T) {
		_, err := LoadPackage(ctx, "./testdata/buildflags", Options{Types: []string{"Tagged"}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownType))
	})

	t.Run("Missing package", func(t *testing.T) {
		_, err := LoadPackage(ctx, "./testdata/missing", Options{})
		require.Error(t, err)
	})
}
