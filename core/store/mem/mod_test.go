package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/polls/core/store/kv"
	"golang.org/x/xerrors"
)

func TestDB_UpdateAndView(t *testing.T) {
	db := NewDB()

	err := db.Update(func(tx kv.WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte("ping"), []byte("pong")))

		// The same copy is returned within the transaction.
		require.Equal(t, []byte("pong"), tx.GetBucket([]byte("bucket")).Get([]byte("ping")))

		return nil
	})
	require.NoError(t, err)

	err = db.View(func(tx kv.ReadableTx) error {
		require.Equal(t, []byte("pong"), tx.GetBucket([]byte("bucket")).Get([]byte("ping")))
		require.Nil(t, tx.GetBucket([]byte("unknown")))

		return nil
	})
	require.NoError(t, err)

	err = db.Update(func(tx kv.WritableTx) error {
		require.Nil(t, tx.GetBucket([]byte("unknown")))

		_, err := tx.GetBucketOrCreate(nil)
		return err
	})
	require.EqualError(t, err, "bucket name required")
}

func TestDB_UpdateRollback(t *testing.T) {
	db := NewDB()

	err := db.Update(func(tx kv.WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		return b.Set([]byte("A"), []byte("1"))
	})
	require.NoError(t, err)

	called := false

	err = db.Update(func(tx kv.WritableTx) error {
		tx.OnCommit(func() { called = true })

		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte("A"), []byte("2")))
		require.NoError(t, b.Set([]byte("B"), []byte("3")))

		return xerrors.New("oops")
	})
	require.EqualError(t, err, "oops")
	require.False(t, called)

	err = db.View(func(tx kv.ReadableTx) error {
		b := tx.GetBucket([]byte("bucket"))
		require.Equal(t, []byte("1"), b.Get([]byte("A")))
		require.Nil(t, b.Get([]byte("B")))

		return nil
	})
	require.NoError(t, err)
}

func TestDB_OnCommit(t *testing.T) {
	db := NewDB()

	var seen []byte

	err := db.Update(func(tx kv.WritableTx) error {
		b, err := tx.GetBucketOrCreate([]byte("bucket"))
		require.NoError(t, err)

		require.NoError(t, b.Set([]byte("A"), []byte("1")))

		tx.OnCommit(func() {
			// The callback observes the committed state.
			db.View(func(rtx kv.ReadableTx) error {
				seen = rtx.GetBucket([]byte("bucket")).Get([]byte("A"))
				return nil
			})
		})

		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []byte("1"), seen)
}

func TestDB_Close(t *testing.T) {
	db := NewDB()

	require.NoError(t, db.Close())

	err := db.View(func(kv.ReadableTx) error { return nil })
	require.EqualError(t, err, "database closed")

	err = db.Update(func(kv.WritableTx) error { return nil })
	require.EqualError(t, err, "database closed")
}

func TestBucket_Scan(t *testing.T) {
	b := newBucket()

	require.NoError(t, b.Set([]byte{1, 2}, []byte{1}))
	require.NoError(t, b.Set([]byte{1, 1}, []byte{2}))
	require.NoError(t, b.Set([]byte{2}, []byte{3}))

	keys := [][]byte{}
	err := b.Scan([]byte{1}, func(k, v []byte) error {
		keys = append(keys, k)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, [][]byte{{1, 1}, {1, 2}}, keys)

	count := 0
	err = b.ForEach(func(k, v []byte) error {
		count++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	err = b.Scan(nil, func(k, v []byte) error {
		return xerrors.New("oops")
	})
	require.EqualError(t, err, "callback failed: oops")

	require.NoError(t, b.Delete([]byte{2}))
	require.Nil(t, b.Get([]byte{2}))
}
