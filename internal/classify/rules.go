package classify

// Rule pairs an aircraft category with the keyword patterns that select it
// and the exclusion terms that veto a keyword occurring in an unrelated
// compound context nearby.
type Rule struct {
	Category   string
	Keywords   []string
	Exclusions []string
}

// DefaultRules is the ordered rule table. Position encodes priority: specific
// categories come first so a parachute-jump report with an incidental
// helicopter mention still classifies as the jump category. Keyword entries
// are regular expressions matched against lower-cased text.
var DefaultRules = []Rule{
	{Category: "Laskuvarjohyppy", Keywords: []string{`laskuvarjo`, `hyppy`, `pudotus`}},
	{Category: "Harraste/Ultrakevyt", Keywords: []string{`ultrakevyt`, `sonerai`, `harraste`, `experimental`, `liidin`, `extra 300`, `rv-8`, `taitolento`}},
	{Category: "Cessna", Keywords: []string{`cessna`, `c150`, `c152`, `c172`, `c182`, `c206`, `c560`}},
	{Category: "Diamond", Keywords: []string{`diamond`, `da40`, `da42`, `da62`}},
	{Category: "Airbus", Keywords: []string{`airbus`, `a319`, `a320`, `a321`, `a330`, `a350`}},
	{Category: "Boeing", Keywords: []string{`boeing`, `b737`, `b757`, `b787`}},
	{Category: "ATR", Keywords: []string{`atr 72`, `atr-72`, `atr 42`}},
	{Category: "Embraer", Keywords: []string{`embraer`, `emb-120`}},
	// Rescue, medevac, and border-guard helicopters show up in reports about
	// other aircraft; those mentions must not claim the record.
	{Category: "Helikopteri", Keywords: []string{`helikopteri`, `eurocopter`, `robinson`, `nh90`, `md500`, `heko`, `ec145`}, Exclusions: []string{`lääkäri`, `pelastus`, `raja`, `lentoavustaja`}},
}

// Vocabulary returns the closed label set offered to the fallback classifier:
// every rule category plus the default.
func Vocabulary(rules []Rule) []string {
	labels := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		labels = append(labels, r.Category)
	}
	return append(labels, defaultCategory)
}
