package metrics

// Verdict values for the overall report summary.
const (
	VerdictWellBalanced = "well-balanced"
	VerdictNeedsTuning  = "needs tuning"
)

// Assessment pairs one metric value with its matched threshold band.
type Assessment struct {
	Value     float64 `json:"value"`
	Band      string  `json:"band"`
	Diagnosis string  `json:"diagnosis"`
}

// Report is the full interpretation of a metric triple. It is pure data;
// rendering is a caller concern.
type Report struct {
	Fertility         Assessment `json:"fertility"`
	CharsPerToken     Assessment `json:"chars_per_token"`
	WordFragmentation Assessment `json:"word_fragmentation_rate"`
	WellBalanced      bool       `json:"well_balanced"`
	Verdict           string     `json:"verdict"`
}

// band is one row of an ordered threshold table. Rows are evaluated in
// order and the first matching row wins; a nil predicate is the catch-all
// final row.
type band struct {
	name      string
	diagnosis string
	matches   func(float64) bool
}

var fertilityBands = []band{
	{"too-coarse", "tokens too coarse, risk of over-merging", func(v float64) bool { return v < 1.2 }},
	{"healthy", "healthy token-to-word balance", func(v float64) bool { return v <= 2.0 }},
	{"moderate-fragmentation", "moderate fragmentation, consider a larger vocabulary", func(v float64) bool { return v <= 2.5 }},
	{"excessive-fragmentation", "excessive fragmentation, too many tokens per word", nil},
}

var charsPerTokenBands = []band{
	{"character-level", "near character-level tokens, too fine", func(v float64) bool { return v < 2 }},
	{"mildly-fragmented", "mildly fragmented tokens, acceptable", func(v float64) bool { return v < 3.5 }},
	{"ideal-density", "information-dense tokens, ideal range", func(v float64) bool { return v <= 6 }},
	{"memorization-risk", "tokens too coarse, risk of memorization", nil},
}

var fragmentationBands = []band{
	{"over-merged", "very few words split, may be over-merged", func(v float64) bool { return v < 0.2 }},
	{"balanced", "balanced subword splitting", func(v float64) bool { return v <= 0.4 }},
	{"under-vocabularied", "many words split, vocabulary too small", func(v float64) bool { return v <= 0.6 }},
	{"over-fragmented", "over-fragmentation, grow the vocabulary or switch model type", nil},
}

func classify(v float64, bands []band) Assessment {
	for _, b := range bands {
		if b.matches == nil || b.matches(v) {
			return Assessment{Value: v, Band: b.name, Diagnosis: b.diagnosis}
		}
	}
	// Unreachable: every table ends with a catch-all row.
	return Assessment{Value: v}
}

// Interpret maps a metric triple through the fixed threshold bands and
// derives the overall verdict. The tokenizer is considered well-balanced
// iff fertility <= 2.0, chars-per-token in [3.5, 6], and word fragmentation
// rate <= 0.4 hold simultaneously.
func Interpret(m Triple) Report {
	r := Report{
		Fertility:         classify(m.Fertility, fertilityBands),
		CharsPerToken:     classify(m.CharsPerToken, charsPerTokenBands),
		WordFragmentation: classify(m.WordFragmentationRate, fragmentationBands),
	}

	r.WellBalanced = m.Fertility <= 2.0 &&
		m.CharsPerToken >= 3.5 && m.CharsPerToken <= 6 &&
		m.WordFragmentationRate <= 0.4

	if r.WellBalanced {
		r.Verdict = VerdictWellBalanced
	} else {
		r.Verdict = VerdictNeedsTuning
	}
	return r
}
