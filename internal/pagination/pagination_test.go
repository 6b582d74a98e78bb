package pagination

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateClampsToBounds(t *testing.T) {
	t.Parallel()

	p := Params{Page: 0, Limit: 0}
	p.Validate()
	require.Equal(t, DefaultPage, p.Page)
	require.Equal(t, DefaultLimit, p.Limit)

	p = Params{Page: -7, Limit: 1000}
	p.Validate()
	require.Equal(t, DefaultPage, p.Page)
	require.Equal(t, MaxLimit, p.Limit)

	p = Params{Page: 3, Limit: 50}
	p.Validate()
	require.Equal(t, 3, p.Page)
	require.Equal(t, 50, p.Limit)
}

func TestOffset(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	require.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
}

func TestCalculateMeta(t *testing.T) {
	t.Parallel()

	meta := Params{Page: 1, Limit: 10}.CalculateMeta(25)
	require.Equal(t, 3, meta.TotalPages)
	require.Equal(t, 25, meta.TotalRecords)
	require.True(t, meta.HasNext)
	require.False(t, meta.HasPrevious)

	meta = Params{Page: 3, Limit: 10}.CalculateMeta(25)
	require.False(t, meta.HasNext)
	require.True(t, meta.HasPrevious)

	meta = Params{Page: 1, Limit: 10}.CalculateMeta(0)
	require.Equal(t, 1, meta.TotalPages)
	require.False(t, meta.HasNext)
	require.False(t, meta.HasPrevious)
}
