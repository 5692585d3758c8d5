// Package metric scores predicted label maps against ground truth.
package metric

import (
	"fmt"
	"math"

	"github.com/sugarme/gotch/ts"
)

// Confusion returns the numClasses x numClasses confusion matrix, indexed
// [target][pred]. Labels outside [0, numClasses) are ignored.
func Confusion(pred, target []int64, numClasses int) ([][]int64, error) {
	if len(pred) != len(target) {
		return nil, fmt.Errorf("metric: %d predictions for %d targets", len(pred), len(target))
	}

	m := make([][]int64, numClasses)
	for i := range m {
		m[i] = make([]int64, numClasses)
	}
	for i, p := range pred {
		t := target[i]
		if p < 0 || t < 0 || p >= int64(numClasses) || t >= int64(numClasses) {
			continue
		}
		m[t][p]++
	}

	return m, nil
}

// ClassIoU returns the intersection over union of each class. Classes absent
// from both maps get NaN.
func ClassIoU(pred, target []int64, numClasses int) ([]float64, error) {
	m, err := Confusion(pred, target, numClasses)
	if err != nil {
		return nil, err
	}

	ious := make([]float64, numClasses)
	for c := 0; c < numClasses; c++ {
		inter := m[c][c]
		var union int64
		for k := 0; k < numClasses; k++ {
			union += m[c][k] + m[k][c]
		}
		union -= inter
		if union == 0 {
			ious[c] = math.NaN()
			continue
		}
		ious[c] = float64(inter) / float64(union)
	}

	return ious, nil
}

// MeanIoU averages ClassIoU over the classes that occur.
func MeanIoU(pred, target []int64, numClasses int) (float64, error) {
	ious, err := ClassIoU(pred, target, numClasses)
	if err != nil {
		return 0, err
	}

	var sum float64
	var n int
	for _, v := range ious {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN(), nil
	}
	return sum / float64(n), nil
}

// PixelAccuracy is the fraction of pixels whose label matches.
func PixelAccuracy(pred, target []int64) (float64, error) {
	if len(pred) != len(target) {
		return 0, fmt.Errorf("metric: %d predictions for %d targets", len(pred), len(target))
	}
	if len(pred) == 0 {
		return math.NaN(), nil
	}

	var hit int
	for i := range pred {
		if pred[i] == target[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(pred)), nil
}

// JaccardIndex is MeanIoU over label tensors of equal shape.
func JaccardIndex(pred, target *ts.Tensor, numClasses int) float64 {
	v, err := MeanIoU(pred.Int64Values(), target.Int64Values(), numClasses)
	if err != nil {
		panic(err)
	}
	return v
}

// IoU is the foreground (label > 0) intersection over union of two tensors.
func IoU(pred, target *ts.Tensor) float64 {
	inter, p, t := overlap(pred, target)
	return float64(inter) / float64(p+t-inter)
}

// DiceCoeff is the foreground (label > 0) dice coefficient of two tensors.
func DiceCoeff(pred, target *ts.Tensor) float64 {
	inter, p, t := overlap(pred, target)
	return 2 * float64(inter) / float64(p+t)
}

func overlap(pred, target *ts.Tensor) (inter, p, t int64) {
	pv := pred.Int64Values()
	tv := target.Int64Values()
	if len(pv) != len(tv) {
		panic(fmt.Sprintf("metric: %d predictions for %d targets", len(pv), len(tv)))
	}
	for i := range pv {
		pf, tf := pv[i] > 0, tv[i] > 0
		if pf {
			p++
		}
		if tf {
			t++
		}
		if pf && tf {
			inter++
		}
	}
	return inter, p, t
}
