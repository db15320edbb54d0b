package journal

import "testing"

type dropCounter struct{ metrics []string }

func (d *dropCounter) RecordJournalDrop(metric string) { d.metrics = append(d.metrics, metric) }

func TestLogAppendAssignsSequenceAndClones(t *testing.T) {
	l := NewLog()
	params := map[string]any{"value": 500.0}
	first := l.Append(Entry{Stage: "run_start", EffectType: "gold_delta", Params: params, Outcome: OutcomeApplied})
	second := l.Append(Entry{Stage: "run_start", EffectType: "deploy_cap_delta", Outcome: OutcomeApplied})
	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("expected sequence 1,2 got %d,%d", first.Seq, second.Seq)
	}
	params["value"] = 1.0
	entries := l.Entries()
	if entries[0].Params["value"] != 500.0 {
		t.Fatalf("expected stored params to be isolated from caller, got %v", entries[0].Params["value"])
	}
	entries[0].Stage = "mutated"
	if l.Entries()[0].Stage != "run_start" {
		t.Fatalf("expected Entries to return copies")
	}
}

func TestLogRestoreResumesSequence(t *testing.T) {
	l := NewLog()
	l.Restore([]Entry{{Seq: 4, Stage: "run_start"}, {Seq: 7, Stage: "act_leave"}})
	next := l.Append(Entry{Stage: "act_enter"})
	if next.Seq != 8 {
		t.Fatalf("expected seq 8 after restore, got %d", next.Seq)
	}
	if l.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", l.Len())
	}
}

func TestRingEvictsOldest(t *testing.T) {
	drops := &dropCounter{}
	r := NewRing(2, drops)
	for _, stage := range []string{"a", "b", "c"} {
		r.Append(Entry{Stage: stage})
	}
	entries := r.Entries()
	if len(entries) != 2 || entries[0].Stage != "b" || entries[1].Stage != "c" {
		t.Fatalf("unexpected ring contents %+v", entries)
	}
	if entries[1].Seq != 3 {
		t.Fatalf("expected seq to keep counting through evictions, got %d", entries[1].Seq)
	}
	if r.Evicted() != 1 || len(drops.metrics) != 1 || drops.metrics[0] != metricJournalEvicted {
		t.Fatalf("expected one eviction reported, got %d %v", r.Evicted(), drops.metrics)
	}
}

func TestHistoryImplementations(t *testing.T) {
	for name, h := range map[string]History{"log": NewLog(), "ring": NewRing(8, nil)} {
		h.Append(Entry{Stage: "run_start", Details: map[string]any{"units": []string{"Edric"}}})
		got := h.Entries()
		got[0].Details["units"].([]string)[0] = "changed"
		if h.Entries()[0].Details["units"].([]string)[0] != "Edric" {
			t.Fatalf("%s: details shared with caller", name)
		}
	}
}
