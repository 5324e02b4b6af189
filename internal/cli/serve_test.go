package cli

import (
	"context"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/tabledraw/pkg/errors"
	"github.com/matzehuels/tabledraw/pkg/storage"
)

func TestServeArchiveFlags(t *testing.T) {
	cmd := New(io.Discard, LogInfo).serveCommand()
	assert.Equal(t, strconv.Itoa(storage.DefaultMaxDocuments), cmd.Flags().Lookup("archive-max").DefValue)
	assert.Equal(t, "0s", cmd.Flags().Lookup("retention").DefValue)
}

func TestMemoryArchiveIsBounded(t *testing.T) {
	ctx := context.Background()
	store := memoryArchive(serveOpts{archiveMax: 2, retention: time.Hour})

	ids := make([]string, 5)
	for i := range ids {
		doc := &storage.Document{Name: "plan.drawio"}
		require.NoError(t, store.Save(ctx, doc))
		ids[i] = doc.ID
	}
	assert.Equal(t, 2, store.Len())

	_, err := store.Get(ctx, ids[0])
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
	_, err = store.Get(ctx, ids[4])
	assert.NoError(t, err)

	// Retention applies to the memory archive too.
	old := &storage.Document{ID: "old", CreatedAt: time.Now().Add(-2 * time.Hour)}
	require.NoError(t, store.Save(ctx, old))
	_, err = store.Get(ctx, "old")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}
