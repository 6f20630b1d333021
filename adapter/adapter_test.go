package adapter

import (
	"errors"
	"reflect"
	"testing"

	"github.com/tsawler/docex/model"
)

func blocks(locs ...int) []model.TextBlock {
	out := make([]model.TextBlock, len(locs))
	for i, l := range locs {
		out[i] = model.TextBlock{Location: l, Content: "t", FontName: model.UnknownFont}
	}
	return out
}

func ok(recs []model.TextBlock) Op[model.TextBlock] {
	return func() ([]model.TextBlock, error) { return recs, nil }
}

func fail(msg string) Op[model.TextBlock] {
	return func() ([]model.TextBlock, error) { return nil, errors.New(msg) }
}

func TestRun(t *testing.T) {
	yes := func() bool { return true }
	no := func() bool { return false }

	tests := []struct {
		name    string
		chain   Chain[model.TextBlock]
		outcome model.Outcome
		count   int
		wantErr bool
	}{
		{"primary ok", Chain[model.TextBlock]{Primary: ok(blocks(0, 1)), Secondary: ok(blocks(0))}, model.OutcomePrimary, 2, false},
		{"primary error", Chain[model.TextBlock]{Primary: fail("boom"), Secondary: ok(blocks(0))}, model.OutcomeFallback, 1, true},
		{"empty without content", Chain[model.TextBlock]{Primary: ok(nil), Secondary: ok(blocks(0)), Probe: no}, model.OutcomePrimary, 0, false},
		{"empty with content", Chain[model.TextBlock]{Primary: ok(nil), Secondary: ok(blocks(0)), Probe: yes}, model.OutcomeFallback, 1, true},
		{"empty no probe", Chain[model.TextBlock]{Primary: ok(nil), Secondary: ok(blocks(0))}, model.OutcomePrimary, 0, false},
		{"both fail", Chain[model.TextBlock]{Primary: fail("a"), Secondary: fail("b")}, model.OutcomeFailed, 0, true},
		{"no secondary", Chain[model.TextBlock]{Primary: fail("a")}, model.OutcomeFailed, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Run[model.TextBlock](model.KindText, tt.chain)
			if r.Outcome != tt.outcome {
				t.Errorf("Outcome = %q, want %q", r.Outcome, tt.outcome)
			}
			if len(r.Records) != tt.count {
				t.Errorf("len(Records) = %d, want %d", len(r.Records), tt.count)
			}
			if (r.Err != nil) != tt.wantErr {
				t.Errorf("Err = %v, wantErr %v", r.Err, tt.wantErr)
			}
			var ee *ExtractionError
			if r.Err != nil && !errors.As(r.Err, &ee) {
				t.Errorf("Err is %T, want *ExtractionError", r.Err)
			}
		})
	}
}

func TestRunRecoversPanics(t *testing.T) {
	chain := Chain[model.TextBlock]{
		Primary: func() ([]model.TextBlock, error) { panic("malformed stream") },
		Secondary: func() ([]model.TextBlock, error) {
			return blocks(3), nil
		},
		Probe: func() bool { panic("probe panic") },
	}
	r := Run[model.TextBlock](model.KindText, chain)
	if r.Outcome != model.OutcomeFallback || len(r.Records) != 1 {
		t.Fatalf("Run() = %+v", r)
	}
	var ee *ExtractionError
	if !errors.As(r.Err, &ee) || ee.Backend != "primary" {
		t.Errorf("Err = %v, want primary ExtractionError", r.Err)
	}
}

func TestRunEmptyTriggerError(t *testing.T) {
	r := Run[model.TextBlock](model.KindText, Chain[model.TextBlock]{
		Primary:   ok(nil),
		Secondary: ok(nil),
		Probe:     func() bool { return true },
	})
	if !errors.Is(r.Err, ErrEmpty) {
		t.Errorf("Err = %v, want ErrEmpty", r.Err)
	}
}

func TestRunNumbersRecords(t *testing.T) {
	r := Run[model.TextBlock](model.KindText, Chain[model.TextBlock]{Primary: ok(blocks(2, 0, 2))})
	var locs, ords []int
	for _, b := range r.Records {
		locs = append(locs, b.Location)
		ords = append(ords, b.Ordinal)
	}
	if !reflect.DeepEqual(locs, []int{0, 2, 2}) || !reflect.DeepEqual(ords, []int{0, 0, 1}) {
		t.Errorf("locations %v ordinals %v", locs, ords)
	}
}

// Forcing the primary to fail must give the same records as running the
// secondary directly.
func TestFallbackMatchesSecondary(t *testing.T) {
	secondary := ok(blocks(1, 0, 1))

	forced := Run[model.TextBlock](model.KindText, Chain[model.TextBlock]{Primary: fail("forced"), Secondary: secondary})
	direct := Run[model.TextBlock](model.KindText, Chain[model.TextBlock]{Primary: secondary})

	if !reflect.DeepEqual(forced.Records, direct.Records) {
		t.Errorf("fallback records %+v differ from direct %+v", forced.Records, direct.Records)
	}
}

func TestChainsAndSummary(t *testing.T) {
	c := &Chains{
		Name:    "TEST",
		TextOps: Chain[model.TextBlock]{Primary: fail("x"), Secondary: ok(blocks(0))},
		LinkOps: Chain[model.Link]{Primary: func() ([]model.Link, error) {
			return []model.Link{{Target: "https://example.com", Kind: model.LinkExternal}}, nil
		}},
	}

	var a Adapter = c
	if a.Format() != "TEST" {
		t.Errorf("Format() = %q", a.Format())
	}

	text := Summary(model.KindText, a.Text())
	if text.Outcome != model.OutcomeFallback || text.Count != 1 || text.Warning == "" {
		t.Errorf("text summary = %+v", text)
	}
	links := Summary(model.KindLinks, a.Links())
	if links.Outcome != model.OutcomePrimary || links.Count != 1 || links.Warning != "" {
		t.Errorf("links summary = %+v", links)
	}
	images := Summary(model.KindImages, a.Images())
	if images.Outcome != model.OutcomeFailed {
		t.Errorf("images summary = %+v, want failed for unconfigured chain", images)
	}
}
