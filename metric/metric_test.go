package metric_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sugarme/gotch/ts"

	"github.com/sugarme/box2pix/metric"
)

var (
	pslice = []int64{1, 0, 0, 1, 0, 0, 1, 0, 0}
	tslice = []int64{1, 0, 0, 1, 1, 0, 1, 0, 0}
)

func tensors() (*ts.Tensor, *ts.Tensor) {
	pred := ts.MustOfSlice(pslice).MustView([]int64{1, 3, 3}, true)
	target := ts.MustOfSlice(tslice).MustView([]int64{1, 3, 3}, true)
	return pred, target
}

func TestJaccardIndex(t *testing.T) {
	pred, target := tensors()
	iou := metric.JaccardIndex(pred, target, 2)
	// (5/6 + 3/4) / 2
	assert.InDelta(t, 0.7917, iou, 1e-4)
}

func TestIoU(t *testing.T) {
	pred, target := tensors()
	assert.InDelta(t, 0.75, metric.IoU(pred, target), 1e-9)
}

func TestDiceCoeff(t *testing.T) {
	pred, target := tensors()
	assert.InDelta(t, 0.8571, metric.DiceCoeff(pred, target), 1e-4)
}

func TestClassIoUSkipsAbsentClasses(t *testing.T) {
	ious, err := metric.ClassIoU(pslice, tslice, 4)
	require.NoError(t, err)
	assert.InDelta(t, 5.0/6, ious[0], 1e-9)
	assert.InDelta(t, 0.75, ious[1], 1e-9)
	assert.True(t, math.IsNaN(ious[2]))
	assert.True(t, math.IsNaN(ious[3]))

	mean, err := metric.MeanIoU(pslice, tslice, 4)
	require.NoError(t, err)
	assert.InDelta(t, (5.0/6+0.75)/2, mean, 1e-9)
}

func TestConfusionIgnoresOutOfRange(t *testing.T) {
	m, err := metric.Confusion([]int64{0, 1, 255}, []int64{0, 0, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]int64{{1, 1}, {0, 0}}, m)

	_, err = metric.Confusion([]int64{0}, []int64{0, 1}, 2)
	assert.Error(t, err)
}

func TestPixelAccuracy(t *testing.T) {
	acc, err := metric.PixelAccuracy(pslice, tslice)
	require.NoError(t, err)
	assert.InDelta(t, 8.0/9, acc, 1e-9)
}
