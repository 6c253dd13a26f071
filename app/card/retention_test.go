package card

import (
	"testing"
)

func records(lifecycle Lifecycle, titleProgress ...string) []NormalizedRecord {
	out := make([]NormalizedRecord, 0, len(titleProgress)/2)
	for i := 0; i+1 < len(titleProgress); i += 2 {
		out = append(out, NormalizedRecord{
			RawRecord: RawRecord{Title: titleProgress[i], ProgressText: titleProgress[i+1]},
			Lifecycle: lifecycle,
		})
	}
	return out
}

func titles(recs []NormalizedRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSelector_GroupByProgress(t *testing.T) {
	selector := NewSelector(EndedGroupByProgress, 0, "")

	ongoing := records(Ongoing, "o1", "x", "o2", "y")
	upcoming := records(Upcoming, "u1", "z")
	ended := records(Ended,
		"e1", "2024/05/01-2024/05/10",
		"e2", "2024/05/01-2024/05/10",
		"e3", "2024/04/20-2024/05/01",
		"e4", "2024/05/01-2024/05/10",
	)

	got := titles(selector.Select(ongoing, upcoming, ended))
	expected := []string{"o1", "o2", "u1", "e1", "e2", "e4"}
	if !equalStrings(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}
}

func TestSelector_GroupAllIdentical(t *testing.T) {
	selector := NewSelector(EndedGroupByProgress, 0, "")
	ended := records(Ended, "e1", "same", "e2", "same", "e3", "same")

	got := selector.Select(nil, nil, ended)
	if len(got) != 3 {
		t.Errorf("Expected the whole group of 3 to be kept, got %v", titles(got))
	}
}

func TestSelector_GroupAllDistinct(t *testing.T) {
	selector := NewSelector(EndedGroupByProgress, 0, "")
	ended := records(Ended, "e1", "a", "e2", "b", "e3", "c")

	got := titles(selector.Select(nil, nil, ended))
	if !equalStrings(got, []string{"e1"}) {
		t.Errorf("Expected only the first ended record, got %v", got)
	}
}

func TestSelector_Limit(t *testing.T) {
	selector := NewSelector(EndedLimit, 0, "")
	if selector.Limit != DefaultEndedLimit {
		t.Fatalf("Expected default limit %d, got %d", DefaultEndedLimit, selector.Limit)
	}

	ended := records(Ended, "e1", "a", "e2", "a", "e3", "b", "e4", "c", "e5", "d", "e6", "e", "e7", "f")
	got := titles(selector.Select(nil, nil, ended))
	if !equalStrings(got, []string{"e1", "e2", "e3", "e4", "e5"}) {
		t.Errorf("Expected first five ended records, got %v", got)
	}

	short := records(Ended, "e1", "a", "e2", "b")
	if got := selector.Select(nil, nil, short); len(got) != 2 {
		t.Errorf("Expected all ended records under the limit, got %v", titles(got))
	}
}

func TestSelector_UpcomingFirst(t *testing.T) {
	selector := NewSelector(EndedGroupByProgress, 0, OrderUpcomingFirst)

	got := titles(selector.Select(records(Ongoing, "o1", "x"), records(Upcoming, "u1", "y"), records(Ended, "e1", "z")))
	if !equalStrings(got, []string{"u1", "o1", "e1"}) {
		t.Errorf("Expected upcoming before ongoing, got %v", got)
	}
}

func TestSelector_NeverDropsActiveRecords(t *testing.T) {
	ongoing := records(Ongoing, "o1", "a", "o2", "a", "o3", "b")
	upcoming := records(Upcoming, "u1", "a", "u2", "c")
	ended := records(Ended, "e1", "a", "e2", "b", "e3", "a")

	for _, policy := range []EndedPolicy{EndedGroupByProgress, EndedLimit} {
		selector := NewSelector(policy, 1, "")
		got := selector.Select(ongoing, upcoming, ended)

		retained := 0
		for _, r := range got {
			if r.Lifecycle == Ended {
				retained++
			}
		}
		if len(got) != len(ongoing)+len(upcoming)+retained {
			t.Errorf("%s: size invariant broken, got %d records", policy, len(got))
		}
		if retained > len(ended) || retained == 0 {
			t.Errorf("%s: unexpected retained ended count %d", policy, retained)
		}
	}
}

func TestSelector_EmptyInput(t *testing.T) {
	got := NewSelector("", 0, "").Select(nil, nil, nil)
	if len(got) != 0 {
		t.Errorf("Expected empty output, got %v", titles(got))
	}
}
