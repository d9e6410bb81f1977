package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImporter_Run(t *testing.T) {
	t.Run("ImportsValidEntries", func(t *testing.T) {
		path := writeSeedFile(t, `[
			{"name": "Notebook", "description": "A5 dotted", "price": 800, "category": "stationery", "stock": 20, "seller_id": "seller-1"},
			{"name": "Pen", "description": "Gel pen", "price": 300, "category": "stationery", "stock": 50, "seller_id": "seller-1"}
		]`)

		repo := new(MockProductRepository)
		repo.On("DeleteAll", mock.Anything).Return(nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*product.Product")).Return(nil)

		importer, err := NewImporter(testLogger(), repo, 4)
		require.NoError(t, err)
		defer importer.Shutdown()

		imported, err := importer.Run(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, 2, imported)
		repo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("SkipsInvalidEntries", func(t *testing.T) {
		path := writeSeedFile(t, `[
			{"name": "Notebook", "description": "A5 dotted", "price": 800, "category": "stationery", "stock": 20, "seller_id": "seller-1"},
			{"name": "", "description": "missing name", "price": 100, "category": "misc", "seller_id": "seller-1"}
		]`)

		repo := new(MockProductRepository)
		repo.On("DeleteAll", mock.Anything).Return(nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*product.Product")).Return(nil)

		importer, err := NewImporter(testLogger(), repo, 2)
		require.NoError(t, err)
		defer importer.Shutdown()

		imported, err := importer.Run(context.Background(), path)

		require.NoError(t, err)
		assert.Equal(t, 1, imported, "Invalid entries are skipped, not fatal")
	})

	t.Run("MissingFile", func(t *testing.T) {
		repo := new(MockProductRepository)

		importer, err := NewImporter(testLogger(), repo, 2)
		require.NoError(t, err)
		defer importer.Shutdown()

		imported, err := importer.Run(context.Background(), filepath.Join(t.TempDir(), "absent.json"))

		assert.Error(t, err)
		assert.Zero(t, imported)
		repo.AssertNotCalled(t, "DeleteAll", mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		path := writeSeedFile(t, `{not json`)

		repo := new(MockProductRepository)
		importer, err := NewImporter(testLogger(), repo, 2)
		require.NoError(t, err)
		defer importer.Shutdown()

		_, err = importer.Run(context.Background(), path)

		assert.Error(t, err)
		repo.AssertNotCalled(t, "DeleteAll", mock.Anything)
	})
}
