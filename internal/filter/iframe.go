package filter

import "strings"

// IframeSubstitute replaces any answer carrying an iframe marker. The whole
// answer is discarded, not just the offending span, so embeddable payloads
// cannot survive partial redaction.
const IframeSubstitute = "no iframe"

// IframeFilter guards against content injection through embeddable HTML.
type IframeFilter struct{}

func NewIframeFilter() *IframeFilter { return &IframeFilter{} }

func (f *IframeFilter) Name() string  { return "iframe" }
func (f *IframeFilter) Enabled() bool { return true }

func (f *IframeFilter) ScanAnswer(answer string) Result {
	if strings.Contains(strings.ToLower(answer), "iframe") {
		return Result{
			Action:      ActionReplace,
			FilterName:  f.Name(),
			Replacement: IframeSubstitute,
		}
	}
	return Result{Action: ActionPass, FilterName: f.Name()}
}
