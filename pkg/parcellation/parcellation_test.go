package parcellation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"func-align/pkg/alignment"
	"func-align/pkg/parcellation"
)

func TestGridMaskCoordinates(t *testing.T) {
	mask, err := parcellation.FullGridMask(2, 2, 1)
	require.NoError(t, err)
	require.Equal(t, 4, mask.NumFeatures())

	coords := mask.Coordinates()
	want := [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	for i, w := range want {
		for d := 0; d < 3; d++ {
			assert.Equal(t, w[d], coords.At(i, d), "feature %d axis %d", i, d)
		}
	}
}

func TestGridMaskSubsetSelection(t *testing.T) {
	voxels := make([]bool, 3*2*1)
	voxels[0] = true // (0,0,0)
	voxels[4] = true // (1,1,0)
	mask, err := parcellation.NewGridMask(3, 2, 1, voxels)
	require.NoError(t, err)
	require.Equal(t, 2, mask.NumFeatures())

	coords := mask.Coordinates()
	assert.Equal(t, 0.0, coords.At(0, 0))
	assert.Equal(t, 1.0, coords.At(1, 0))
	assert.Equal(t, 1.0, coords.At(1, 1))
}

func TestNewGridMaskValidation(t *testing.T) {
	_, err := parcellation.NewGridMask(0, 2, 2, nil)
	assert.ErrorIs(t, err, alignment.ErrInvalidConfig)

	_, err = parcellation.NewGridMask(2, 2, 2, make([]bool, 7))
	assert.ErrorIs(t, err, alignment.ErrInvalidConfig)

	_, err = parcellation.NewGridMask(2, 2, 2, make([]bool, 8))
	assert.ErrorIs(t, err, alignment.ErrInvalidConfig, "empty mask must be rejected")
}

func TestFlatMask(t *testing.T) {
	mask := parcellation.FlatMask(5)
	assert.Equal(t, 5, mask.NumFeatures())

	coords := mask.Coordinates()
	r, c := coords.Dims()
	require.Equal(t, 5, r)
	require.Equal(t, 1, c)
	for i := 0; i < 5; i++ {
		assert.Equal(t, float64(i), coords.At(i, 0))
	}
}

func TestPartitionSingleRegion(t *testing.T) {
	mask := parcellation.FlatMask(9)
	opts := parcellation.DefaultOptions()

	labels, err := parcellation.Partition(mask, opts)
	require.NoError(t, err)
	require.Len(t, labels, 9)
	for i, id := range labels {
		assert.Equal(t, 0, id, "feature %d", i)
	}
}

func TestPartitionDeterministic(t *testing.T) {
	mask, err := parcellation.FullGridMask(6, 6, 3)
	require.NoError(t, err)

	opts := parcellation.DefaultOptions()
	opts.NPieces = 8
	opts.Seed = 7

	first, err := parcellation.Partition(mask, opts)
	require.NoError(t, err)
	second, err := parcellation.Partition(mask, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same mask and seed must reproduce the labeling")
}

func TestPartitionCoverageAndContiguity(t *testing.T) {
	mask, err := parcellation.FullGridMask(5, 4, 3)
	require.NoError(t, err)

	opts := parcellation.DefaultOptions()
	opts.NPieces = 7
	opts.Seed = 3

	labels, err := parcellation.Partition(mask, opts)
	require.NoError(t, err)
	require.NoError(t, labels.Validate(mask.NumFeatures()))
	assert.Equal(t, 7, labels.NumRegions())

	for id, region := range labels.Regions() {
		assert.NotEmpty(t, region, "region %d must own at least one feature", id)
	}
}

func TestPartitionInvalidConfiguration(t *testing.T) {
	mask := parcellation.FlatMask(4)

	opts := parcellation.DefaultOptions()
	opts.NPieces = 0
	_, err := parcellation.Partition(mask, opts)
	assert.ErrorIs(t, err, alignment.ErrInvalidConfig)

	opts.NPieces = 5
	_, err = parcellation.Partition(mask, opts)
	assert.ErrorIs(t, err, alignment.ErrInvalidConfig, "more regions than features must fail")
}

func TestPartitionAsManyRegionsAsFeatures(t *testing.T) {
	mask := parcellation.FlatMask(6)
	opts := parcellation.DefaultOptions()
	opts.NPieces = 6
	opts.Seed = 11

	labels, err := parcellation.Partition(mask, opts)
	require.NoError(t, err)
	require.NoError(t, labels.Validate(6))
	assert.Equal(t, 6, labels.NumRegions(), "each feature must get its own region")
}

func TestLabelingValidate(t *testing.T) {
	good := parcellation.Labeling{0, 1, 0, 2, 1}
	assert.NoError(t, good.Validate(5))

	short := parcellation.Labeling{0, 1}
	assert.ErrorIs(t, short.Validate(5), alignment.ErrShapeMismatch)

	negative := parcellation.Labeling{0, -1, 1}
	assert.ErrorIs(t, negative.Validate(3), alignment.ErrInvalidConfig)

	gap := parcellation.Labeling{0, 2, 0, 2}
	assert.ErrorIs(t, gap.Validate(4), alignment.ErrInvalidConfig, "unused id 1 must be rejected")
}

func TestLabelingRegions(t *testing.T) {
	labels := parcellation.Labeling{1, 0, 1, 0, 2}
	regions := labels.Regions()
	require.Len(t, regions, 3)
	assert.Equal(t, []int{1, 3}, regions[0])
	assert.Equal(t, []int{0, 2}, regions[1])
	assert.Equal(t, []int{4}, regions[2])
}
