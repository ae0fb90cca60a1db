package extraction

import (
	"context"

	"github.com/slidecast/slide-extraction-service/internal/domain/entity"
	"github.com/slidecast/slide-extraction-service/internal/infra/metrics"
)

type frameResult struct {
	frame *entity.Frame
	err   error
}

// prefetchFrames decodes the candidate frames across a bounded worker pool
// and delivers them strictly in candidate order. Decode is the dominant
// wall-clock cost and independent per frame; classification is sequential,
// so the workers run ahead of the consumer by a bounded window only.
func (p *Pipeline) prefetchFrames(ctx context.Context, indices []int) <-chan frameResult {
	out := make(chan frameResult)

	slots := make([]chan frameResult, len(indices))
	for i := range slots {
		slots[i] = make(chan frameResult, 1)
	}

	workers := p.cfg.DecodeWorkers
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int)
	window := make(chan struct{}, workers*2)
	fps := p.source.FPS()

	for w := 0; w < workers; w++ {
		go func() {
			for pos := range jobs {
				idx := indices[pos]
				img, err := p.source.Frame(ctx, idx)
				if err != nil {
					slots[pos] <- frameResult{err: &FrameDecodeError{Index: idx, Err: err}}
					continue
				}
				metrics.FramesDecodedTotal.Inc()
				slots[pos] <- frameResult{frame: &entity.Frame{
					Index:     idx,
					Timestamp: float64(idx) / fps,
					Image:     img,
				}}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for pos := range indices {
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- pos:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		defer close(out)
		for pos := range indices {
			var r frameResult
			select {
			case r = <-slots[pos]:
			case <-ctx.Done():
				return
			}
			select {
			case out <- r:
				<-window
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
