package docex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/tsawler/docex/adapter"
	"github.com/tsawler/docex/loader"
	"github.com/tsawler/docex/model"
)

// fileRun tracks one file through the pipeline.
type fileRun struct {
	path  string
	state State
	log   *slog.Logger
}

func (r *fileRun) advance(s State) {
	r.log.Debug("state", "from", r.state.String(), "to", s.String())
	r.state = s
}

// fail moves the run to StateFailed and returns the fatal error.
func (r *fileRun) fail(err error) error {
	fe := &FileError{Path: r.path, State: r.state, Err: err}
	r.log.Error("extraction failed", "state", r.state.String(), "err", err)
	r.state = StateFailed
	return fe
}

// Extract validates and loads path, then runs the four operations in the
// order text, links, images, tables. A validation or load failure is
// returned as a *FileError wrapping the loader error; failures inside an
// operation are only recorded in the bundle's report.
func (e *Extractor) Extract(path string) (*model.Bundle, error) {
	run := &fileRun{path: path, state: StateUnvalidated, log: e.logger.With("path", path)}

	l, err := loader.ForPath(path, loader.WithTableConfig(e.tables))
	if err != nil {
		return nil, run.fail(err)
	}
	run.log = run.log.With("format", l.Format().String())
	run.advance(StateValidated)

	if st, err := os.Stat(path); err == nil && st.Size() > e.maxFileSize {
		return nil, run.fail(fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, st.Size(), e.maxFileSize))
	}

	h, err := l.Load(path)
	if err != nil {
		return nil, run.fail(err)
	}
	defer h.Close()
	run.advance(StateLoaded)

	sum, err := fileDigest(path)
	if err != nil {
		return nil, run.fail(fmt.Errorf("hashing: %w", err))
	}
	adp := h.Adapter()
	title, author := h.Info()
	b := &model.Bundle{Document: model.DocumentInfo{
		ID:     uuid.NewSHA1(uuid.NameSpaceOID, sum).String(),
		Path:   path,
		Format: adp.Format(),
		SHA256: hex.EncodeToString(sum),
		Title:  title,
		Author: author,
	}}

	run.advance(StateExtracting)
	for _, k := range model.AllKinds() {
		op := e.extract(b, adp, k)
		b.Report.Operations = append(b.Report.Operations, op)
		logOperation(run.log, op)
	}
	run.advance(StateDone)
	return b, nil
}

// extract runs one operation into b.
func (e *Extractor) extract(b *model.Bundle, adp adapter.Adapter, k model.Kind) model.OperationReport {
	if !e.wants(k) {
		return model.OperationReport{Kind: k, Outcome: model.OutcomeSkipped}
	}
	switch k {
	case model.KindText:
		r := adp.Text()
		b.Text = r.Records
		return adapter.Summary(k, r)
	case model.KindLinks:
		r := adp.Links()
		b.Links = r.Records
		return adapter.Summary(k, r)
	case model.KindImages:
		r := adp.Images()
		b.Images = r.Records
		return adapter.Summary(k, r)
	default:
		r := adp.Tables()
		b.Tables = r.Records
		return adapter.Summary(k, r)
	}
}

func logOperation(log *slog.Logger, op model.OperationReport) {
	switch op.Outcome {
	case model.OutcomeFallback:
		log.Warn("operation fell back to secondary backend", "op", string(op.Kind), "count", op.Count, "err", op.Warning)
	case model.OutcomeFailed:
		log.Warn("operation failed", "op", string(op.Kind), "err", op.Warning)
	default:
		log.Debug("operation finished", "op", string(op.Kind), "outcome", string(op.Outcome), "count", op.Count)
	}
}

// fileDigest streams path through SHA-256.
func fileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
