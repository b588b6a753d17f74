// Package sincetime turns the --since flag value into an absolute timestamp.
// It accepts literal timestamps as well as natural-language phrases like
// "10 minutes ago" or "yesterday".
package sincetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// literal layouts tried before falling back to natural-language parsing
var layouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Parse resolves a since phrase relative to now. The empty string and "now"
// resolve to now itself, which makes the first poll a pure baseline.
func Parse(phrase string, now time.Time) (time.Time, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" || strings.EqualFold(phrase, "now") {
		return now, nil
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, phrase, now.Location()); err == nil {
			return t, nil
		}
	}

	r, err := parser.Parse(phrase, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time phrase %q: %w", phrase, err)
	}
	// A nil result means no rule recognized anything in the phrase.
	if r == nil {
		return time.Time{}, fmt.Errorf("cannot parse time phrase %q", phrase)
	}
	return r.Time, nil
}
