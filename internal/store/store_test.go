package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokengate/tokengate/internal/codec"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/model"
	"github.com/tokengate/tokengate/internal/slot"
)

func newFileStore(t *testing.T) (*Store, *slot.FileSlot) {
	t.Helper()
	sl := slot.NewFile(filepath.Join(t.TempDir(), "slot.dat"))
	return New(codec.Default(), sl, logger.Discard()), sl
}

func issueInto(t *testing.T, st *Store, value string) {
	t.Helper()
	st.Update(context.Background(), func(set *model.TokenSet) bool {
		set.Put(&model.Token{
			Value:     value,
			Status:    model.StatusAvailable,
			CreatedAt: time.Now().UnixMilli(),
		})
		return true
	})
}

func TestLoadMissingSlotMeansEmptyStore(t *testing.T) {
	st, _ := newFileStore(t)
	st.Load(context.Background())
	assert.Equal(t, 0, st.Count())
}

func TestUpdatePersistsAcrossLoad(t *testing.T) {
	ctx := context.Background()
	st, sl := newFileStore(t)
	st.Load(ctx)

	issueInto(t, st, "tok-1")
	issueInto(t, st, "tok-2")

	// A second store on the same slot sees the persisted collection
	st2 := New(codec.Default(), sl, logger.Discard())
	st2.Load(ctx)
	assert.Equal(t, 2, st2.Count())

	var got *model.Token
	st2.Update(ctx, func(set *model.TokenSet) bool {
		got = set.Get("tok-1")
		return false
	})
	require.NotNil(t, got)
	assert.Equal(t, model.StatusAvailable, got.Status)
}

func TestUpdateWithoutMutationDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	st, sl := newFileStore(t)
	st.Load(ctx)

	st.Update(ctx, func(set *model.TokenSet) bool { return false })

	_, err := sl.Read(ctx)
	assert.ErrorIs(t, err, slot.ErrEmpty)
}

func TestLoadCorruptSlotResetsToEmpty(t *testing.T) {
	ctx := context.Background()
	sl := slot.NewFile(filepath.Join(t.TempDir(), "slot.dat"))
	require.NoError(t, sl.Write(ctx, "definitely-not-a-valid-payload"))

	st := New(codec.Default(), sl, logger.Discard())
	st.Load(ctx)
	assert.Equal(t, 0, st.Count())
}

func TestLoadWrongShapeResetsToEmpty(t *testing.T) {
	ctx := context.Background()
	sl := slot.NewFile(filepath.Join(t.TempDir(), "slot.dat"))

	// Valid codec payload, but not an array of token records
	payload, err := codec.Default().Encode(map[string]string{"not": "tokens"})
	require.NoError(t, err)
	require.NoError(t, sl.Write(ctx, payload))

	st := New(codec.Default(), sl, logger.Discard())
	st.Load(ctx)
	assert.Equal(t, 0, st.Count())
}

// failingSlot accepts reads but rejects every write.
type failingSlot struct{}

func (failingSlot) Read(context.Context) (string, error) { return "", slot.ErrEmpty }
func (failingSlot) Write(context.Context, string) error  { return errors.New("quota exceeded") }

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	ctx := context.Background()
	st := New(codec.Default(), failingSlot{}, logger.Discard())
	st.Load(ctx)

	issueInto(t, st, "tok-1")

	// The write failed, but the in-memory collection is still authoritative
	assert.Equal(t, 1, st.Count())
}
