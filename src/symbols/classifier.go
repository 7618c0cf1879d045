// Package symbols decides whether a ticker denotes an equity/ETF or an
// option contract. Classification is an ordered rule list; the first rule
// that matches wins and anything unmatched is an equity.
package symbols

import (
	"regexp"
	"strings"
	"unicode"

	"tradeimport/src/model"
)

// Rule is one step of the classification cascade.
type Rule struct {
	Name   string
	Match  func(symbol string) bool
	Result model.InstrumentType
}

// ManualOptionAliases are option tickers typed by hand into the tracking
// service. They carry no strike or expiry, so only an explicit list catches them.
var ManualOptionAliases = []string{
	"SPYO",
	"QQQO",
	"IWMO",
	"SPXW",
	"NDXP",
}

// IndexETFRoots are index funds whose derivative products show up as the
// root plus a suffix (e.g. "SPY" vs "SPY 450C").
var IndexETFRoots = []string{
	"SPY",
	"QQQ",
	"IWM",
}

var (
	occSymbolRe   = regexp.MustCompile(`\d{6}[CP]\d{8}`)
	rootStrikeRe  = regexp.MustCompile(`[A-Z]{1,5}\d+[CP]`)
	sixDigitRunRe = regexp.MustCompile(`\d{6}`)
	defaultClass  = NewClassifier(DefaultRules()...)
)

// DefaultRules returns the standard cascade:
//  1. OCC option symbology (YYMMDD + C/P + 8-digit strike) anywhere in the symbol
//  2. manual option aliases
//  3. derivatives of an index ETF root (contains the root, is not the root)
//  4. heuristics: long symbol with a digit, root+digits+C/P, or a 6-digit run
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:   "occ_symbology",
			Match:  occSymbolRe.MatchString,
			Result: model.InstrumentOption,
		},
		{
			Name:   "manual_alias",
			Match:  inList(ManualOptionAliases),
			Result: model.InstrumentOption,
		},
		{
			Name:   "index_etf_derivative",
			Match:  derivativeOf(IndexETFRoots),
			Result: model.InstrumentOption,
		},
		{
			Name:   "heuristic",
			Match:  looksLikeOption,
			Result: model.InstrumentOption,
		},
	}
}

type Classifier struct {
	rules []Rule
}

// NewClassifier builds a classifier evaluating rules in the given order.
func NewClassifier(rules ...Rule) *Classifier {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Classifier{rules: copied}
}

// WithRules returns a classifier that evaluates extra before the existing rules.
func (c *Classifier) WithRules(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(extra)+len(c.rules))
	rules = append(rules, extra...)
	rules = append(rules, c.rules...)
	return &Classifier{rules: rules}
}

// Classify returns the instrument type of symbol. It never fails; a symbol no
// rule recognises is an equity.
func (c *Classifier) Classify(symbol string) model.InstrumentType {
	result, _ := c.Explain(symbol)
	return result
}

// Explain is Classify plus the name of the rule that matched ("" for the
// equity fallback).
func (c *Classifier) Explain(symbol string) (model.InstrumentType, string) {
	s := Normalize(symbol)
	if s == "" {
		return model.InstrumentEquity, ""
	}
	for _, r := range c.rules {
		if r.Match != nil && r.Match(s) {
			return r.Result, r.Name
		}
	}
	return model.InstrumentEquity, ""
}

// ClassifyInstrument classifies symbol with the default rule set.
func ClassifyInstrument(symbol string) model.InstrumentType {
	return defaultClass.Classify(symbol)
}

// Default returns the classifier built from DefaultRules.
func Default() *Classifier {
	return defaultClass
}

// Normalize upper-cases and trims a ticker.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func inList(list []string) func(string) bool {
	set := make(map[string]struct{}, len(list))
	for _, s := range list {
		set[Normalize(s)] = struct{}{}
	}
	return func(symbol string) bool {
		_, ok := set[symbol]
		return ok
	}
}

func derivativeOf(roots []string) func(string) bool {
	return func(symbol string) bool {
		for _, root := range roots {
			if symbol != root && strings.Contains(symbol, root) {
				return true
			}
		}
		return false
	}
}

func looksLikeOption(symbol string) bool {
	if len(symbol) > 6 && strings.IndexFunc(symbol, unicode.IsDigit) >= 0 {
		return true
	}
	return rootStrikeRe.MatchString(symbol) || sixDigitRunRe.MatchString(symbol)
}
