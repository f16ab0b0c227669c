package engine

import (
	"testing"

	"typed-kv-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, e *Engine) {
	t.Helper()
	for _, fv := range [][2]string{{"name", "jim"}, {"age", "12"}, {"phone", "12345678901"}} {
		created, err := e.HSet("user12", fv[0], fv[1])
		require.NoError(t, err)
		require.True(t, created)
	}
}

func TestEngine_HSetHGet(t *testing.T) {
	e, _ := newTestEngine()
	seedUser(t, e)

	val, found, err := e.HGet("user12", "name")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "jim", val)

	_, found, _ = e.HGet("user12", "email")
	assert.False(t, found)

	_, found, _ = e.HGet("nobody", "name")
	assert.False(t, found)
}

func TestEngine_HSetOverwriteKeepsPosition(t *testing.T) {
	e, _ := newTestEngine()
	seedUser(t, e)

	created, err := e.HSet("user12", "name", "tom")
	require.NoError(t, err)
	assert.False(t, created)

	keys, _ := e.HKeys("user12")
	assert.Equal(t, []string{"name", "age", "phone"}, keys)
	vals, _ := e.HVals("user12")
	assert.Equal(t, []string{"tom", "12", "12345678901"}, vals)
}

func TestEngine_HKeysHDelHVals(t *testing.T) {
	e, _ := newTestEngine()
	seedUser(t, e)

	keys, err := e.HKeys("user12")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"name", "age", "phone"}, keys)

	n, err := e.HDel("user12", "name")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	keys, _ = e.HKeys("user12")
	assert.ElementsMatch(t, []string{"phone", "age"}, keys)

	vals, err := e.HVals("user12")
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "12345678901"}, vals)
}

func TestEngine_HDelCountsOnlyExisting(t *testing.T) {
	e, _ := newTestEngine()
	seedUser(t, e)

	n, err := e.HDel("user12", "age", "email", "age")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = e.HDel("nobody", "age")
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEngine_EmptiedHashRemains(t *testing.T) {
	e, _ := newTestEngine()
	e.HSet("h", "only", "1")

	n, _ := e.HDel("h", "only")
	require.Equal(t, 1, n)

	assert.Equal(t, 1, e.Exists("h"))
	assert.Equal(t, "hash", e.Type("h"))
	keys, err := e.HKeys("h")
	assert.NoError(t, err)
	assert.Empty(t, keys)
	size, _ := e.HLen("h")
	assert.Equal(t, 0, size)

	// Still a hash, so it cannot be reused as a list without a delete.
	_, err = e.RPush("h", "x")
	assert.ErrorIs(t, err, store.ErrWrongType)
}

func TestEngine_HashHelpers(t *testing.T) {
	e, _ := newTestEngine()
	seedUser(t, e)

	n, _ := e.HLen("user12")
	assert.Equal(t, 3, n)

	ok, _ := e.HExists("user12", "phone")
	assert.True(t, ok)
	ok, _ = e.HExists("user12", "email")
	assert.False(t, ok)

	all, err := e.HGetAll("user12")
	require.NoError(t, err)
	assert.Equal(t, []FieldValue{
		{Field: "name", Value: "jim"},
		{Field: "age", Value: "12"},
		{Field: "phone", Value: "12345678901"},
	}, all)
}

func TestEngine_HashOnWrongType(t *testing.T) {
	e, _ := newTestEngine()
	e.Set("username", "zhangsan", SetOptions{})

	_, err := e.HSet("username", "f", "v")
	assert.ErrorIs(t, err, store.ErrWrongType)
	_, err = e.HKeys("username")
	assert.ErrorIs(t, err, store.ErrWrongType)
}

func TestEngine_HSetFieldsIsOneUpdate(t *testing.T) {
	e, _ := newTestEngine()

	n, err := e.HSetFields("cfg", FieldValue{"a", "1"}, FieldValue{"b", "2"}, FieldValue{"a", "3"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pairs, err := e.HGetAll("cfg")
	require.NoError(t, err)
	assert.Equal(t, []FieldValue{{"a", "3"}, {"b", "2"}}, pairs)

	_, err = e.Set("plain", "x", SetOptions{})
	require.NoError(t, err)
	_, err = e.HSetFields("plain", FieldValue{"a", "1"})
	assert.ErrorIs(t, err, store.ErrWrongType)
}
