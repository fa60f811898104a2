package filter

// Action represents the filter decision.
type Action string

const (
	ActionPass    Action = "pass"
	ActionReplace Action = "replace"
)

// Result is returned by each filter.
type Result struct {
	Action     Action
	FilterName string
	// Replacement substitutes the entire answer when Action is replace.
	// Partial redaction is deliberately not supported.
	Replacement string
}

// Filter is the interface all answer filters implement.
type Filter interface {
	Name() string
	Enabled() bool
	ScanAnswer(answer string) Result
}

// Chain runs filters in order over a completion answer. A replacing filter
// substitutes the whole answer and later filters see the substitute.
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from the given filters.
func NewChain(filters ...Filter) *Chain {
	return &Chain{filters: filters}
}

// Run executes all enabled filters in order and returns the final answer
// along with the results of every filter that ran.
func (c *Chain) Run(answer string) (string, []Result) {
	var results []Result
	for _, f := range c.filters {
		if !f.Enabled() {
			continue
		}
		r := f.ScanAnswer(answer)
		results = append(results, r)
		if r.Action == ActionReplace {
			answer = r.Replacement
		}
	}
	return answer, results
}
