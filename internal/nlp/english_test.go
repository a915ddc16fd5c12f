package nlp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newEnglish(t *testing.T) *English {
	t.Helper()
	e, err := NewEnglish()
	if err != nil {
		t.Fatalf("NewEnglish failed: %v", err)
	}
	return e
}

func TestEnglish_Sentences(t *testing.T) {
	e := newEnglish(t)

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			name: "markers stay with the closing sentence",
			in:   "Cats are great. [1] Cats are loved by many people around the world. [1][2]",
			want: []string{
				"Cats are great. [1]",
				"Cats are loved by many people around the world. [1][2]",
			},
		},
		{
			name: "run-together sentences are repaired",
			in:   "It rained.Then it stopped!",
			want: []string{"It rained.", "Then it stopped!"},
		},
		{
			name: "decimals do not split",
			in:   "Pi is roughly 3.14 in most texts.",
			want: []string{"Pi is roughly 3.14 in most texts."},
		},
		{
			name: "closing quotes are kept",
			in:   `He said "stop." Then he left?`,
			want: []string{`He said "stop."`, "Then he left?"},
		},
		{
			name: "abbreviations and initialisms do not split",
			in:   "The U.S. economy grew [1]. Dr. Smith said so [2].",
			want: []string{"The U.S. economy grew [1].", "Dr. Smith said so [2]."},
		},
		{
			name: "abbreviation before a marker still closes",
			in:   "Cats, dogs etc. [1] Birds sing.",
			want: []string{"Cats, dogs etc. [1]", "Birds sing."},
		},
		{
			name: "latin abbreviations",
			in:   "Pets, e.g. Cats, need care. They purr.",
			want: []string{"Pets, e.g. Cats, need care.", "They purr."},
		},
		{
			name: "no terminator",
			in:   "  a fragment without an ending  ",
			want: []string{"a fragment without an ending"},
		},
		{
			name: "empty",
			in:   "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Sentences(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Sentences mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEnglish_Tokens(t *testing.T) {
	e := newEnglish(t)

	got := e.Tokens("Cats are great. [1]")
	want := []string{"Cats", "are", "great", ".", "[", "1", "]"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestEnglish_Tokens_InvalidUTF8(t *testing.T) {
	e := newEnglish(t)

	got := e.Tokens("around the world \xff and beyond. [1]")
	want := []string{"around", "the", "world", "\uFFFD", "and", "beyond", ".", "[", "1", "]"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestEnglish_Tokens_KeepsURLsWhole(t *testing.T) {
	e := newEnglish(t)

	got := e.Tokens("See https://example.com/report?id=7. Now")
	want := []string{"See", "https://example.com/report?id=7", ".", "Now"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestEnglish_Tokens_Numbers(t *testing.T) {
	e := newEnglish(t)

	got := e.Tokens("Sales rose 3.5 percent")
	want := []string{"Sales", "rose", "3.5", "percent"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestEnglish_IsStopWord(t *testing.T) {
	e := newEnglish(t)

	for _, w := range []string{"the", "and", "is", "of"} {
		if !e.IsStopWord(w) {
			t.Errorf("expected %q to be a stop word", w)
		}
	}
	for _, w := range []string{"cats", "citation", "geography"} {
		if e.IsStopWord(w) {
			t.Errorf("expected %q not to be a stop word", w)
		}
	}
}

func TestEnglish_Entities(t *testing.T) {
	e := newEnglish(t)

	tokens := e.Tokens("Dr Jane Smith joined Acme Corp in London during the Climate Summit.")
	got := map[string]Label{}
	for _, ent := range e.Entities(tokens) {
		got[ent.Text] = ent.Label
	}

	want := map[string]Label{
		"Dr Jane Smith":  LabelPerson,
		"Acme Corp":      LabelOrg,
		"London":         LabelGPE,
		"Climate Summit": LabelEvent,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Entities mismatch (-want +got):\n%s", diff)
	}
}

func TestEnglish_Entities_SentenceInitial(t *testing.T) {
	e := newEnglish(t)

	// "Cats" opens the sentence and no rule claims it; "The" is a stop word
	if ents := e.Entities(e.Tokens("Cats are great.")); len(ents) != 0 {
		t.Errorf("expected no entities, got %v", ents)
	}
	if ents := e.Entities(e.Tokens("The weather is mild.")); len(ents) != 0 {
		t.Errorf("expected no entities, got %v", ents)
	}
}

func TestEnglish_Entities_ProductAndWork(t *testing.T) {
	e := newEnglish(t)

	ents := e.Entities(e.Tokens(`Reviewers praised Windows 11 and the novel "Dune" alike.`))
	got := map[string]Label{}
	for _, ent := range ents {
		got[ent.Text] = ent.Label
	}

	if got["Windows"] != LabelProduct {
		t.Errorf("expected Windows to be PRODUCT, got %q", got["Windows"])
	}
	if got["Dune"] != LabelWorkOfArt {
		t.Errorf("expected Dune to be WORK_OF_ART, got %q", got["Dune"])
	}
}
