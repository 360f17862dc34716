package ecmh

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultisetHashInsertRemove(t *testing.T) {
	testCases := []struct {
		items []string
	}{
		{
			items: []string{"apple", "banana", "cherry"},
		},
		{
			items: []string{"apple", "banana", "cherry", "apple"},
		}, // multisets
	}
	for _, tc := range testCases {
		currentHash := NewMultisetHash()
		for _, item := range tc.items {
			currentHash.InsertBytes([]byte(item))
		}
		cr1 := currentHash.String()

		currentHash.RemoveBytes([]byte(tc.items[0]))
		cr2 := currentHash.String()
		require.NotEqual(t, cr1, cr2)

		currentHash.InsertBytes([]byte(tc.items[0]))
		cr3 := currentHash.String()
		require.Equal(t, cr1, cr3)
	}
}

func TestMultisetHashOrderInsensitive(t *testing.T) {
	h1 := NewMultisetHash()
	h1.InsertBytes([]byte("apple"))
	h1.InsertBytes([]byte("banana"))
	h1.InsertBytes([]byte("cherry"))

	h2 := NewMultisetHash()
	h2.InsertBytes([]byte("cherry"))
	h2.InsertBytes([]byte("apple"))
	h2.InsertBytes([]byte("banana"))

	require.Equal(t, h1.String(), h2.String())
}

func TestMultisetHashUnionDiff(t *testing.T) {
	h1 := NewMultisetHash()
	h1.InsertBytes([]byte("apple"))
	h1.InsertBytes([]byte("banana"))

	h2 := NewMultisetHash()
	h2.InsertBytes([]byte("cherry"))

	h1.Union(h2)

	expected := NewMultisetHash()
	expected.InsertBytes([]byte("apple"))
	expected.InsertBytes([]byte("banana"))
	expected.InsertBytes([]byte("cherry"))
	require.Equal(t, expected.String(), h1.String())

	h1.Difference(h2)

	expected2 := NewMultisetHash()
	expected2.InsertBytes([]byte("apple"))
	expected2.InsertBytes([]byte("banana"))
	require.Equal(t, expected2.String(), h1.String())
}

func TestMultisetHashRoundTrip(t *testing.T) {
	h := NewMultisetHash()
	h.InsertBytes([]byte("apple"))
	h.InsertBytes([]byte("banana"))

	restored := NewMultisetHash()
	require.NoError(t, restored.SetString(h.String()))
	require.Equal(t, h.String(), restored.String())

	restored.InsertBytes([]byte("cherry"))
	h.InsertBytes([]byte("cherry"))
	require.Equal(t, h.String(), restored.String())

	require.Error(t, restored.SetString("zz"))
	require.Error(t, restored.SetBytes([]byte("short")))
}
