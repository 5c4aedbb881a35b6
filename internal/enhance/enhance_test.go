package enhance_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/fretscribe/internal/enhance"
	"github.com/MrWong99/fretscribe/internal/terminology/classify"
	"github.com/MrWong99/fretscribe/internal/terminology/library"
	"github.com/MrWong99/fretscribe/internal/terminology/pattern"
	"github.com/MrWong99/fretscribe/pkg/provider/llm"
	"github.com/MrWong99/fretscribe/pkg/provider/llm/mock"
	"github.com/MrWong99/fretscribe/pkg/transcription"
)

func mustParse(t *testing.T, s string) *transcription.Document {
	t.Helper()
	doc, err := transcription.Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return string(b)
}

// yesFor answers YES for the listed words and NO otherwise.
func yesFor(words ...string) *mock.Provider {
	return &mock.Provider{
		ModelName: "test-model",
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			for _, w := range words {
				if strings.Contains(req.Messages[0].Content, `Word: "`+w+`"`) {
					return &llm.CompletionResponse{Content: "YES"}, nil
				}
			}
			return &llm.CompletionResponse{Content: "NO"}, nil
		},
	}
}

func fixedClock() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

const lesson = `{
	"text": "I play a Fretboard sweep don't",
	"word_segments": [
		{"word": "I", "start": 0.0, "end": 0.1, "score": 0.95},
		{"word": "play", "start": 0.2, "end": 0.4, "score": 0.5},
		{"word": "a", "start": 0.5, "end": 0.6, "score": 0.9},
		{"word": "Fretboard", "start": 0.7, "end": 1.1, "score": 0.4},
		{"word": "sweep", "start": 1.2, "end": 1.5, "score": 0.3},
		{"word": "don't", "start": 1.6, "end": 1.9, "score": 0.2}
	]
}`

func TestEnhance_Lesson(t *testing.T) {
	t.Parallel()

	p := yesFor("sweep")
	ev := enhance.New(nil, nil,
		enhance.WithModel(classify.NewModel(p)),
		enhance.WithClock(fixedClock),
	)
	doc := mustParse(t, lesson)
	out, rep := ev.Enhance(context.Background(), doc)
	if rep == nil {
		t.Fatal("nil report")
	}

	ws := out.WordSegments()
	boosted := map[string]bool{}
	for _, e := range ws {
		if e[enhance.FieldBoosted] == true {
			boosted[e["word"].(string)] = true
			if e["score"] != 1.0 {
				t.Errorf("%v score = %v, want 1.0", e["word"], e["score"])
			}
			if e[enhance.FieldBoostReason] != enhance.ReasonTerminology {
				t.Errorf("%v boost_reason = %v", e["word"], e[enhance.FieldBoostReason])
			}
			if _, ok := e[enhance.FieldPatternType]; ok {
				t.Errorf("%v carries pattern_type without a pattern", e["word"])
			}
		}
	}
	if len(boosted) != 2 || !boosted["Fretboard"] || !boosted["sweep"] {
		t.Errorf("boosted = %v, want Fretboard and sweep", boosted)
	}

	dont := ws[5]
	if _, ok := dont[enhance.FieldBoosted]; ok {
		t.Error("don't was boosted")
	}
	if dont[enhance.FieldNormalizedForm] != "don't" {
		t.Errorf("don't normalized_form = %v", dont[enhance.FieldNormalizedForm])
	}
	if got := mustJSON(t, dont[transcription.FieldOriginalConfidence]); got != "0.2" {
		t.Errorf("don't original_confidence = %s, want 0.2", got)
	}
	if got := mustJSON(t, ws[3][transcription.FieldOriginalConfidence]); got != "0.4" {
		t.Errorf("Fretboard original_confidence = %s, want 0.4", got)
	}

	if p.Calls() != 1 {
		t.Errorf("classifier calls = %d, want 1 (library and dictionary short-circuit the rest)", p.Calls())
	}
	if got := p.CompleteCalls[0].Req.Messages[0].Content; !strings.Contains(got, `"play a Fretboard sweep don't"`) {
		t.Errorf("context window not sent: %s", got)
	}

	checks := []struct {
		name      string
		got, want int
	}{
		{"TotalWords", rep.TotalWords, 6},
		{"WordsEvaluated", rep.WordsEvaluated, 4},
		{"BoostedTerminology", rep.BoostedTerminology, 2},
		{"BoostedPattern", rep.BoostedPattern, 0},
		{"Unchanged", rep.Unchanged, 2},
		{"DictionaryFiltered", rep.DictionaryFiltered, 2},
		{"Classifier.Calls", rep.Classifier.Calls, 1},
		{"Classifier.Positives", rep.Classifier.Positives, 1},
		{"Classifier.LibraryHits", rep.Classifier.LibraryHits, 1},
		{"Classifier.CacheSize", rep.Classifier.CacheSize, 4},
		{"BoostedByReason", rep.BoostedByReason[enhance.ReasonTerminology], 2},
		{"Enhancements", len(rep.Enhancements), 2},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if !rep.Classifier.Enabled || rep.Classifier.Model != "test-model" {
		t.Errorf("Classifier = %+v", rep.Classifier)
	}
	if rep.EvaluatorVersion != "2.1.0" || rep.RunID == "" || !rep.EvaluatedAt.Equal(fixedClock()) {
		t.Errorf("report header = %q %q %v", rep.EvaluatorVersion, rep.RunID, rep.EvaluatedAt)
	}
	if rep.Library.Type != "builtin" || rep.Dictionary.Type != "fallback" {
		t.Errorf("capabilities = %+v %+v", rep.Library, rep.Dictionary)
	}
	if md, ok := out.Metadata(enhance.MetadataKey); !ok || md != rep {
		t.Error("report not attached under metadata key")
	}
}

func TestEnhance_LibraryShortCircuit(t *testing.T) {
	t.Parallel()

	p := yesFor()
	lib, err := library.ReadFile(strings.NewReader("categories:\n  techniques: [sweep picking, tapping]\n"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	ev := enhance.New(lib, nil, enhance.WithModel(classify.NewModel(p)))
	out, rep := ev.Enhance(context.Background(), mustParse(t, `{
		"word_segments": [{"word": "Tapping!", "score": 0.1}, {"word": "tapping", "score": 0.1}]
	}`))

	if p.Calls() != 0 {
		t.Errorf("classifier calls = %d, want 0", p.Calls())
	}
	for i, e := range out.WordSegments() {
		if e[enhance.FieldBoosted] != true {
			t.Errorf("entry %d not boosted: %v", i, e)
		}
	}
	if rep.Classifier.LibraryHits != 2 || rep.Classifier.Calls != 0 {
		t.Errorf("Classifier = %+v", rep.Classifier)
	}
}

func TestEnhance_FourCountPattern(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"word_segments": [
			{"word": "1", "score": 0.9},
			{"word": "2", "score": 0.3},
			{"word": "3", "score": 0.31},
			{"word": "4", "score": 0.2},
			{"word": "strum", "score": 0.95}
		]
	}`)
	before := mustJSON(t, doc.WordSegments()[0])

	p := yesFor("1", "2", "3", "4")
	out, rep := enhance.New(nil, nil, enhance.WithModel(classify.NewModel(p))).Enhance(context.Background(), doc)

	if rep.PatternsFound != 1 || rep.Patterns[0].Type != pattern.TypeFourCount {
		t.Fatalf("Patterns = %+v", rep.Patterns)
	}
	if rep.BoostedPattern != 3 || rep.BoostedByReason[pattern.ReasonCounting] != 3 {
		t.Errorf("BoostedPattern = %d, by reason = %v", rep.BoostedPattern, rep.BoostedByReason)
	}
	if p.Calls() != 0 {
		t.Errorf("claimed words were classified individually: %d calls", p.Calls())
	}

	ws := out.WordSegments()
	if got := mustJSON(t, ws[0]); got != before {
		t.Errorf("high-confidence covered word changed:\n got %s\nwant %s", got, before)
	}
	for _, e := range ws[1:4] {
		if e["score"] != 1.0 || e[enhance.FieldPatternType] != "four_count" {
			t.Errorf("entry = %v", e)
		}
		if d, _ := e[enhance.FieldPatternDescription].(string); d == "" {
			t.Errorf("missing pattern_description: %v", e)
		}
		if e[enhance.FieldBoostReason] != pattern.ReasonCounting {
			t.Errorf("boost_reason = %v", e[enhance.FieldBoostReason])
		}
	}
	for _, enh := range rep.Enhancements {
		if enh.PatternIndex == nil || *enh.PatternIndex != 0 || enh.PatternType != pattern.TypeFourCount {
			t.Errorf("enhancement = %+v", enh)
		}
	}
}

func TestEnhance_HighConfidenceUntouched(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"word_segments": [
			{"word": "Hammer-on", "start": 1.25, "end": 1.5, "score": 0.75, "speaker": "SPEAKER_00"},
			{"word": "chord", "start": 1.5, "end": 1.75, "score": 0.990000}
		]
	}`)
	before := mustJSON(t, doc.WordSegments())

	out, rep := enhance.New(nil, nil).Enhance(context.Background(), doc)
	if got := mustJSON(t, out.WordSegments()); got != before {
		t.Errorf("word_segments changed:\n got %s\nwant %s", got, before)
	}
	if rep.WordsEvaluated != 0 || rep.TotalWords != 2 {
		t.Errorf("report = %+v", rep)
	}
}

func TestEnhance_BothRepresentationsInLockStep(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"word_segments": [
			{"word": "the", "score": 0.5},
			{"word": "capo", "score": 0.4},
			{"word": "down", "score": 0.3}
		],
		"segments": [
			{"text": "the capo", "words": [{"word": "the", "score": 0.5}, {"word": "capo", "score": 0.4}]},
			{"text": "down", "words": [{"word": "down", "score": 0.3}]}
		]
	}`)

	out, _ := enhance.New(nil, nil).Enhance(context.Background(), doc)

	flat, nested := out.WordSegments(), out.SegmentWords()
	if len(flat) != len(nested) {
		t.Fatalf("lengths %d vs %d", len(flat), len(nested))
	}
	for i := range flat {
		if got, want := mustJSON(t, nested[i]), mustJSON(t, flat[i]); got != want {
			t.Errorf("entry %d differs:\n flat   %s\n nested %s", i, want, got)
		}
	}
	if flat[1][enhance.FieldBoosted] != true {
		t.Errorf("capo not boosted: %v", flat[1])
	}
}

func TestEnhance_LengthMismatchWritesPrefix(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"word_segments": [{"word": "capo", "score": 0.4}, {"word": "fret", "score": 0.4}],
		"segments": [{"words": [{"word": "capo", "score": 0.4}]}]
	}`)

	out, rep := enhance.New(nil, nil).Enhance(context.Background(), doc)
	if rep == nil {
		t.Fatal("nil report")
	}
	if out.SegmentWords()[0][enhance.FieldBoosted] != true {
		t.Error("shared prefix not written to segments")
	}
	if out.WordSegments()[1][enhance.FieldBoosted] != true {
		t.Error("word_segments not fully written")
	}
}

func TestEnhance_ConfidenceFieldVariants(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{
		"segments": [{"words": [
			{"word": "capo", "confidence": 0.4},
			{"word": "barre", "score": 0.4, "confidence": 0.4}
		]}]
	}`)
	out, _ := enhance.New(nil, nil).Enhance(context.Background(), doc)

	ws := out.SegmentWords()
	if ws[0]["confidence"] != 1.0 {
		t.Errorf("capo = %v", ws[0])
	}
	if _, ok := ws[0]["score"]; ok {
		t.Error("score field created")
	}
	if ws[1]["score"] != 1.0 || ws[1]["confidence"] != 1.0 {
		t.Errorf("barre = %v", ws[1])
	}
}

func TestEnhance_Monotonic(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, lesson)
	orig := transcription.Extract(doc)

	out, _ := enhance.New(nil, nil, enhance.WithModel(classify.NewModel(yesFor("sweep", "play")))).
		Enhance(context.Background(), doc)

	for i, o := range transcription.Extract(out) {
		if o.Confidence < orig[i].Confidence {
			t.Errorf("word %d %q: confidence dropped %v -> %v", i, o.Word, orig[i].Confidence, o.Confidence)
		}
		if o.OriginalConfidence != orig[i].Confidence {
			t.Errorf("word %d %q: original_confidence = %v, want %v", i, o.Word, o.OriginalConfidence, orig[i].Confidence)
		}
	}
}

func TestEnhance_RerunChangesNothing(t *testing.T) {
	t.Parallel()

	ev := enhance.New(nil, nil, enhance.WithModel(classify.NewModel(yesFor("sweep"))))
	first, _ := ev.Enhance(context.Background(), mustParse(t, lesson))

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, rep := ev.Enhance(context.Background(), mustParse(t, string(data)))

	if got, want := mustJSON(t, second.WordSegments()), mustJSON(t, first.WordSegments()); got != want {
		t.Errorf("second run changed words:\n got %s\nwant %s", got, want)
	}
	if rep.BoostedTerminology+rep.BoostedPattern != 0 {
		t.Errorf("second run boosted %d words", rep.BoostedTerminology+rep.BoostedPattern)
	}
}

func TestEnhance_InputNotMutated(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, lesson)
	before := mustJSON(t, doc)
	enhance.New(nil, nil).Enhance(context.Background(), doc)
	if got := mustJSON(t, doc); got != before {
		t.Errorf("input document mutated:\n got %s\nwant %s", got, before)
	}
}

func TestEnhance_MalformedInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		json string
	}{
		{"no word collections", `{"text": "hello"}`},
		{"word_segments not a list", `{"word_segments": "oops"}`},
		{"segments without words", `{"segments": [{"text": "x"}, 5]}`},
		{"entries missing fields", `{"word_segments": [{}, {"word": 3}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out, rep := enhance.New(nil, nil).Enhance(context.Background(), mustParse(t, tc.json))
			if rep == nil {
				t.Fatal("nil report")
			}
			if rep.BoostedPattern+rep.BoostedTerminology != 0 {
				t.Errorf("report = %+v", rep)
			}
			if _, ok := out.Metadata(enhance.MetadataKey); !ok {
				t.Error("metadata block missing")
			}
		})
	}
}

func TestEnhance_ReportJSON(t *testing.T) {
	t.Parallel()

	_, rep := enhance.New(nil, nil).Enhance(context.Background(), mustParse(t, `{"text": ""}`))

	var m map[string]any
	if err := json.Unmarshal([]byte(mustJSON(t, rep)), &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{
		"evaluator_version", "run_id", "evaluated_at", "confidence_threshold", "boost_target",
		"total_words", "words_evaluated", "boosted_terminology", "boosted_pattern",
		"boosted_by_reason", "unchanged", "dictionary_filtered", "patterns_found",
		"patterns", "classifier", "library", "dictionary", "enhancements",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("report JSON missing %q", key)
		}
	}
	if m["words_evaluated"] != 0.0 || m["confidence_threshold"] != 0.75 {
		t.Errorf("report = %v", m)
	}
	if ps, ok := m["patterns"].([]any); !ok || len(ps) != 0 {
		t.Errorf("patterns = %v, want empty list", m["patterns"])
	}
}

func TestEnhance_Options(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"word_segments": [{"word": "capo", "score": 0.85}]}`)

	_, rep := enhance.New(nil, nil).Enhance(context.Background(), doc)
	if rep.WordsEvaluated != 0 {
		t.Errorf("default threshold evaluated %d words", rep.WordsEvaluated)
	}

	out, rep := enhance.New(nil, nil, enhance.WithThreshold(0.9), enhance.WithBoostTarget(0.95)).
		Enhance(context.Background(), doc)
	if rep.WordsEvaluated != 1 || rep.BoostTarget != 0.95 {
		t.Errorf("report = %+v", rep)
	}
	if got := out.WordSegments()[0]["score"]; got != 0.95 {
		t.Errorf("score = %v, want 0.95", got)
	}
}

func TestEnhance_DictionaryFilteredCountsRepeats(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `{"word_segments": [
		{"word": "the", "score": 0.3},
		{"word": "The", "score": 0.4},
		{"word": "the", "score": 0.5}
	]}`)
	_, rep := enhance.New(nil, nil).Enhance(context.Background(), doc)

	if rep.DictionaryFiltered != 3 {
		t.Errorf("DictionaryFiltered = %d, want 3", rep.DictionaryFiltered)
	}
	if rep.Classifier.CacheHits != 2 {
		t.Errorf("Classifier.CacheHits = %d, want 2", rep.Classifier.CacheHits)
	}
}

type panickingLibrary struct{}

func (panickingLibrary) IsTerm(string) bool { panic("library exploded") }
func (panickingLibrary) Stats() library.Stats { return library.Stats{Type: "broken"} }

func TestEnhance_PanicReturnsOriginal(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, lesson)
	out, rep := enhance.New(panickingLibrary{}, nil).Enhance(context.Background(), doc)

	if rep != nil {
		t.Errorf("report = %+v, want nil", rep)
	}
	if out != doc {
		t.Error("panic did not return the original document")
	}
}
