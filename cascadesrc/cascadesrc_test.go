package cascadesrc_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facekit/facekit/cascadesrc"
)

func TestSource_Open_LocalPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facefinder.xml")
	require.NoError(t, os.WriteFile(path, []byte("<cascade/>"), 0644))

	src := &cascadesrc.Source{}
	r, err := src.Open(path)
	require.NoError(t, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<cascade/>", string(b))
}

func TestSource_Open_MissingLocalPath(t *testing.T) {
	src := &cascadesrc.Source{}
	_, err := src.Open("/nonexistent/cascade.xml")
	assert.Error(t, err)
}

func TestSource_Open_RejectsMalformedS3Reference(t *testing.T) {
	src := &cascadesrc.Source{CacheDir: t.TempDir()}
	_, err := src.Open("s3:///missing-bucket")
	assert.Error(t, err)
}
