package adapter

import "github.com/tsawler/docex/model"

// Adapter is the extraction contract every format implements. Each call is
// independent of the others and never returns an error: failures are carried
// in the Result.
type Adapter interface {
	Format() string
	Text() Result[model.TextBlock]
	Links() Result[model.Link]
	Images() Result[model.Image]
	Tables() Result[model.Table]
}

// Chains implements Adapter from one chain per operation.
type Chains struct {
	Name     string
	TextOps  Chain[model.TextBlock]
	LinkOps  Chain[model.Link]
	ImageOps Chain[model.Image]
	TableOps Chain[model.Table]
}

// Format returns the format name the chains were built for.
func (c *Chains) Format() string { return c.Name }

// Text runs the text chain.
func (c *Chains) Text() Result[model.TextBlock] {
	return Run[model.TextBlock](model.KindText, c.TextOps)
}

// Links runs the link chain.
func (c *Chains) Links() Result[model.Link] {
	return Run[model.Link](model.KindLinks, c.LinkOps)
}

// Images runs the image chain.
func (c *Chains) Images() Result[model.Image] {
	return Run[model.Image](model.KindImages, c.ImageOps)
}

// Tables runs the table chain.
func (c *Chains) Tables() Result[model.Table] {
	return Run[model.Table](model.KindTables, c.TableOps)
}

// Summary describes a result for a report.
func Summary[T any](kind model.Kind, r Result[T]) model.OperationReport {
	op := model.OperationReport{Kind: kind, Outcome: r.Outcome, Count: len(r.Records)}
	if r.Err != nil {
		op.Warning = r.Err.Error()
	}
	return op
}
