package filestore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meghashyamc/docquery/config"
	"github.com/meghashyamc/docquery/logger"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, assert *require.Assertions) *Store {
	return newTestStoreWithConfig(t, assert, nil)
}

func newTestStoreWithConfig(t *testing.T, assert *require.Assertions, configure func(cfg *config.Config)) *Store {
	t.Setenv("ENV", "test")
	cfg, err := config.Load()
	assert.NoError(err, "could not load config")
	cfg.Set(config.KeyDataDir, filepath.Join(t.TempDir(), "data"))
	if configure != nil {
		configure(cfg)
	}

	store, err := New(logger.Discard(), cfg)
	assert.NoError(err, "could not create store")
	return store
}

func TestSaveAndRead(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	content := "The warranty lasts two years."
	saved, err := store.Save("warranty.txt", strings.NewReader(content))
	assert.NoError(err)
	assert.Equal("warranty.txt", saved.Name)
	assert.Equal(int64(len(content)), saved.Size)

	sum := sha256.Sum256([]byte(content))
	assert.Equal(hex.EncodeToString(sum[:]), saved.SHA256)

	data, truncated, err := store.Read("warranty.txt")
	assert.NoError(err)
	assert.False(truncated)
	assert.Equal(content, string(data))
}

func TestSaveOverwrites(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	_, err := store.Save("policy.md", strings.NewReader("old policy text that is longer"))
	assert.NoError(err)
	_, err = store.Save("policy.md", strings.NewReader("new"))
	assert.NoError(err)

	data, _, err := store.Read("policy.md")
	assert.NoError(err)
	assert.Equal("new", string(data))

	files, err := store.List()
	assert.NoError(err)
	assert.Len(files, 1)
	assert.Equal(int64(3), files[0].Size)
}

func TestListSkipsHiddenFilesAndDirectories(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	_, err := store.Save("b.txt", strings.NewReader("bb"))
	assert.NoError(err)
	_, err = store.Save("a.txt", strings.NewReader("a"))
	assert.NoError(err)
	assert.NoError(os.WriteFile(filepath.Join(store.Dir(), ".upload-123"), []byte("partial"), 0644))
	assert.NoError(os.Mkdir(filepath.Join(store.Dir(), "subdir"), 0755))

	files, err := store.List()
	assert.NoError(err)
	assert.Len(files, 2)
	assert.Equal("a.txt", files[0].Name)
	assert.Equal(int64(1), files[0].Size)
	assert.Equal("b.txt", files[1].Name)
	assert.Equal(filepath.Join(store.Dir(), "b.txt"), files[1].Path)
}

func TestInvalidNames(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	for _, name := range []string{"", ".", "..", "../escape.txt", "a/b.txt", "nul\x00.txt"} {
		_, err := store.Save(name, strings.NewReader("x"))
		assert.ErrorIs(err, ErrInvalidName, name)
	}

	_, _, err := store.Read("../etc/passwd")
	assert.ErrorIs(err, ErrInvalidName)
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	assert := require.New(t)
	store := newTestStore(t, assert)

	_, err := store.Save("doc.txt", strings.NewReader("content"))
	assert.NoError(err)

	entries, err := os.ReadDir(store.Dir())
	assert.NoError(err)
	assert.Len(entries, 1)
	assert.Equal("doc.txt", entries[0].Name())
}

func TestReadLimit(t *testing.T) {
	assert := require.New(t)
	store := newTestStoreWithConfig(t, assert, func(cfg *config.Config) {
		cfg.Set(config.KeyServerMaxUploadBytes, 16)
		cfg.Set(config.KeyMaxReadBytes, 16)
	})

	testCases := []struct {
		name              string
		content           string
		expectedContent   string
		expectedTruncated bool
	}{
		{name: "UnderLimit", content: "short", expectedContent: "short"},
		{name: "AtLimit", content: "exactly 16 bytes", expectedContent: "exactly 16 bytes"},
		{name: "OverLimit", content: "this is more than sixteen bytes", expectedContent: "this is more tha", expectedTruncated: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			_, err := store.Save(testCase.name, strings.NewReader(testCase.content))
			assert.NoError(err)

			data, truncated, err := store.Read(testCase.name)
			assert.NoError(err)
			assert.Equal(testCase.expectedTruncated, truncated)
			assert.Equal(testCase.expectedContent, string(data))
		})
	}
}
