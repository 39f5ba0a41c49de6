package series

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insar-viewer/pkg/geometry"
)

type countingProfiles struct {
	calls int
	err   error
}

func (c *countingProfiles) Profile(x, y int) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float64{float64(x), float64(y)}, nil
}

func TestReaderMemoizes(t *testing.T) {
	src := &countingProfiles{}
	r, err := NewReader(src, 2)
	require.NoError(t, err)

	v, err := r.At(geometry.Pt(3, 4))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, v)
	_, _ = r.At(geometry.Pt(3, 4))
	assert.Equal(t, 1, src.calls)

	_, _ = r.At(geometry.Pt(1, 1))
	_, _ = r.At(geometry.Pt(2, 2))
	_, _ = r.At(geometry.Pt(3, 4))
	assert.Equal(t, 4, src.calls, "least recently used entry was evicted")

	r.Purge()
	_, _ = r.At(geometry.Pt(2, 2))
	assert.Equal(t, 5, src.calls)
}

func TestReaderDoesNotCacheErrors(t *testing.T) {
	src := &countingProfiles{err: errors.New("boom")}
	r, err := NewReader(src, 4)
	require.NoError(t, err)
	_, err = r.At(geometry.Pt(0, 0))
	assert.Error(t, err)
	src.err = nil
	_, err = r.At(geometry.Pt(0, 0))
	assert.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestMeanSkipsNaN(t *testing.T) {
	nan := math.NaN()
	m := Mean([][]float64{{1, nan, 3}, {3, nan, nan}, {5, nan, 6}})
	require.Len(t, m, 3)
	assert.Equal(t, 3.0, m[0])
	assert.True(t, math.IsNaN(m[1]))
	assert.Equal(t, 4.5, m[2])
	assert.Nil(t, Mean(nil))
}

func TestSubtract(t *testing.T) {
	assert.Equal(t, []float64{1, 1}, Subtract([]float64{3, 4}, []float64{2, 3}))
	assert.Equal(t, []float64{3, 4}, Subtract([]float64{3, 4}, nil))
}
