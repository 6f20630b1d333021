package docex

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/docex/model"
)

// Process extracts path and stores every extracted kind in the sink, one
// kind at a time. A storage failure stops at that kind and is returned as a
// *sink.StorageError; kinds stored before it stay stored. The bundle is
// returned whenever extraction itself succeeded.
func (e *Extractor) Process(path string) (*model.Bundle, error) {
	if e.sink == nil {
		return nil, ErrNoSink
	}
	b, err := e.Extract(path)
	if err != nil {
		return nil, err
	}
	for _, op := range b.Report.Operations {
		if op.Outcome == model.OutcomeSkipped {
			continue
		}
		if err := e.sink.Store(b.Document, op.Kind, b.Records(op.Kind)); err != nil {
			e.logger.Error("storing records", "path", path, "op", string(op.Kind), "err", err)
			return b, err
		}
	}
	return b, nil
}

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	Path   string
	Bundle *model.Bundle
	Err    error
}

// ProcessAll runs Process on each path with at most concurrency files in
// flight. Results are in the order of paths. A failing file does not stop
// the others; the returned error is only set when ctx is cancelled, in
// which case files not yet started report ctx.Err().
func (e *Extractor) ProcessAll(ctx context.Context, paths []string, concurrency int) ([]FileResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, p := range paths {
		results[i].Path = p
		if err := gctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return err
			}
			results[i].Bundle, results[i].Err = e.Process(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
