package catalog

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFileStorage_MissingFileIsEmpty(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "missing.json"))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStorage_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	s := NewFileStorage(path)

	err := s.Save(context.Background(), []Product{
		{ID: 1, Title: "ARROZ", Description: "Arroz paquete 1 kilo", Price: 100, Thumbnail: "001.jpg", Code: "arroz123", Stock: 35},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	want := "[\n" +
		"\t{\n" +
		"\t\t\"id\": 1,\n" +
		"\t\t\"title\": \"ARROZ\",\n" +
		"\t\t\"description\": \"Arroz paquete 1 kilo\",\n" +
		"\t\t\"price\": 100,\n" +
		"\t\t\"thumbnail\": \"001.jpg\",\n" +
		"\t\t\"code\": \"arroz123\",\n" +
		"\t\t\"stock\": 35\n" +
		"\t}\n" +
		"]"
	assert.Equal(t, want, string(raw))
}

func TestFileStorage_EmptyCatalogWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	s := NewFileStorage(path)

	require.NoError(t, s.Save(context.Background(), nil))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFileStorage_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStorage(filepath.Join(dir, "products.json"))

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Save(context.Background(), []Product{{ID: i}}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "products.json", entries[0].Name())
}

func TestFileStorage_SaveKeepsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))

	require.NoError(t, NewFileStorage(path).Save(context.Background(), []Product{{ID: 1}}))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
}

func TestFileStorage_SaveWritesThroughSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data", "products.json")
	link := filepath.Join(dir, "products.json")

	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("[]"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	s := NewFileStorage(link)
	require.NoError(t, s.Save(context.Background(), []Product{{ID: 1, Code: "a"}}))

	fi, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeSymlink, "link must survive the save")

	got, err := NewFileStorage(target).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Code)
}

func TestFileStorage_InfinitePriceDoesNotBlockSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	ctx := context.Background()

	c := New(NewFileStorage(path), zap.NewNop())
	require.NoError(t, c.Load(ctx))

	d := draft("bad", "bad")
	d.Price = Ptr(math.Inf(1))
	_, err := c.Add(ctx, d)
	require.ErrorIs(t, err, ErrValidation)

	p, err := c.Add(ctx, draft("good", "good"))
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, p.ID))

	_, err = c.Add(ctx, draft("after", "after"))
	require.NoError(t, err)

	reloaded := New(NewFileStorage(path), zap.NewNop())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, c.List(), reloaded.List())
}

func TestFileStorage_SaveIntoMissingDir(t *testing.T) {
	s := NewFileStorage(filepath.Join(t.TempDir(), "nope", "products.json"))

	err := s.Save(context.Background(), []Product{{ID: 1}})
	require.Error(t, err)
	assert.Error(t, s.Ping(context.Background()))
}

func TestFileStorage_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	ctx := context.Background()

	c := New(NewFileStorage(path), zap.NewNop())
	require.NoError(t, c.Load(ctx))

	for _, code := range []string{"a", "b", "c", "d"} {
		_, err := c.Add(ctx, draft("P"+code, code))
		require.NoError(t, err)
	}
	require.NoError(t, c.Delete(ctx, 2))
	_, err := c.Update(ctx, 3, Patch{Title: Ptr("renamed"), Price: Ptr(12.5)})
	require.NoError(t, err)

	reloaded := New(NewFileStorage(path), zap.NewNop())
	require.NoError(t, reloaded.Load(ctx))
	assert.Equal(t, c.List(), reloaded.List())

	p, err := reloaded.Add(ctx, draft("Pe", "e"))
	require.NoError(t, err)
	assert.Equal(t, 5, p.ID)
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStorage(path).Load(context.Background())
	require.Error(t, err)

	c := New(NewFileStorage(path), zap.NewNop())
	err = c.Load(context.Background())
	require.ErrorIs(t, err, ErrStorageRead)
	assert.Empty(t, c.List())

	// The next save overwrites the unreadable file.
	_, err = c.Add(context.Background(), draft("a", "a"))
	require.NoError(t, err)

	reloaded := New(NewFileStorage(path), zap.NewNop())
	require.NoError(t, reloaded.Load(context.Background()))
	assert.Len(t, reloaded.List(), 1)
}

func TestFileStorage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewFileStorage(filepath.Join(t.TempDir(), "products.json"))
	assert.ErrorIs(t, s.Save(ctx, nil), context.Canceled)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
