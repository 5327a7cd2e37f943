package optim

import (
	"slices"

	"github.com/born-ml/axon/internal/dataset"
	"github.com/born-ml/axon/internal/interp"
	"github.com/born-ml/axon/internal/ir"
	"github.com/born-ml/axon/internal/parallel"
)

// Evaluate returns the mean of loss over every row of ds, with m run at the
// given parameters. Gradients are not accumulated.
//
// Rows are grouped into batches of the widest lane width that divides the
// row count. Batches are spread across workers per cfg; each worker owns an
// interpreter, so the result does not depend on cfg.
func Evaluate(m *ir.Module, params []float32, ds dataset.Dataset, loss interface{ Index() int }, cfg parallel.Config) (float32, error) {
	if m.NumInputs() != ds.Cols() {
		return 0, ir.Errorf("the number of inputs to the network (%d) does not match the number of columns in the dataset (%d)",
			m.NumInputs(), ds.Cols())
	}
	if len(params) != m.NumParams() {
		return 0, ir.Errorf("got %d parameters, module has %d", len(params), m.NumParams())
	}
	if ds.Rows() == 0 {
		return 0, ir.Errorf("dataset is empty")
	}
	if idx := loss.Index(); idx < 0 || idx >= m.Len() {
		return 0, ir.Errorf("loss node %d out of range (module has %d nodes)", idx, m.Len())
	}

	lanes := evalLanes(ds.Rows())
	batches := ds.Rows() / lanes
	sums := make([]float32, batches)
	data, cols := ds.Data(), ds.Cols()

	errs := make([]error, batches)
	parallel.ForChunk(batches, func(start, end int) {
		it, err := interp.New(m, lanes, params, nil)
		if err != nil {
			errs[start] = err
			return
		}
		input := make([]float32, lanes*cols)
		for b := start; b < end; b++ {
			for lane := 0; lane < lanes; lane++ {
				r := b*lanes + lane
				for col, v := range data[r*cols : (r+1)*cols] {
					input[col*lanes+lane] = v
				}
			}
			it.Exec(input)
			for _, v := range it.Value(loss) {
				sums[b] += v
			}
		}
	}, cfg)
	for _, err := range errs {
		if err != nil {
			return 0, err
		}
	}

	var total float32
	for _, s := range sums {
		total += s
	}
	return total / float32(ds.Rows()), nil
}

// evalLanes returns the widest supported lane width dividing rows.
func evalLanes(rows int) int {
	widths := slices.Clone(interp.SupportedLanes)
	slices.Sort(widths)
	slices.Reverse(widths)
	for _, w := range widths {
		if rows%w == 0 {
			return w
		}
	}
	return 1
}
