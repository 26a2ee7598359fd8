package sampling

import "math"

// partial is one block's local argmax for a round.
type partial struct {
	best int
	dist float32
}

// blockWorker owns nearest[lo:hi] for the lifetime of one batch element.
type blockWorker struct {
	lo, hi int
	in     chan int
	out    chan partial
}

func (w *blockWorker) loop(update updateFunc) {
	for p := range w.in {
		best, dist := update(w.lo, w.hi, p)
		w.out <- partial{best: best, dist: dist}
	}
	close(w.out)
}

// selectBlocked splits the candidates into contiguous blocks served by
// long-lived workers. Each round the coordinator sends the selected point to
// every worker and merges their partials in block order; the channel round
// trip is the round's barrier, and the coordinator's write to selected
// happens before the next send.
func selectBlocked(n int, row []int32, selected []bool, update updateFunc, blockSize int, trace func(round, index int, dist float32)) {
	workers := make([]*blockWorker, 0, (n+blockSize-1)/blockSize)
	for lo := 0; lo < n; lo += blockSize {
		w := &blockWorker{
			lo:  lo,
			hi:  min(lo+blockSize, n),
			in:  make(chan int, 1),
			out: make(chan partial, 1),
		}
		workers = append(workers, w)
		go w.loop(update)
	}
	defer func() {
		for _, w := range workers {
			close(w.in)
		}
	}()

	p := 0
	row[0] = 0
	selected[0] = true
	if trace != nil {
		trace(0, 0, float32(math.Inf(1)))
	}

	for r := 1; r < len(row); r++ {
		for _, w := range workers {
			w.in <- p
		}

		best, bestDist := -1, float32(math.Inf(-1))
		for _, w := range workers {
			part := <-w.out
			if part.best < 0 {
				continue
			}
			if best < 0 || part.dist > bestDist {
				best, bestDist = part.best, part.dist
			}
		}

		p = best
		row[r] = int32(p)
		selected[p] = true
		if trace != nil {
			trace(r, p, bestDist)
		}
	}
}
