package service

import (
	"fmt"
	"strings"

	"github.com/GabrielAlexander97/neverpayforads/internal/membership/domain"
)

// Rule is one step of order classification. Only authoritative rules can
// qualify an order; a matching advisory rule is recorded and nothing more.
type Rule struct {
	Name          string
	Authoritative bool
	Match         func(o domain.Order) (detail string, ok bool)
}

// Classifier evaluates its rules in order. The first matching authoritative
// rule decides the outcome.
type Classifier struct {
	Rules []Rule
}

// NewClassifier builds the rule list:
//
//  1. sku        (authoritative) a line item SKU equals sku exactly
//  2. title      (advisory)      a line item title or name contains "membership"
//  3. order_tag  (advisory)      the order tags contain tag
//
// Title and tag matches are spoofable by any order that mentions the word, so
// they never activate on their own.
func NewClassifier(sku, tag string) *Classifier {
	rules := []Rule{
		{Name: "sku", Authoritative: true, Match: skuRule(sku)},
		{Name: "title", Match: titleRule("membership")},
	}
	if strings.TrimSpace(tag) != "" {
		rules = append(rules, Rule{Name: "order_tag", Match: tagRule(tag)})
	}
	return &Classifier{Rules: rules}
}

func (c *Classifier) Classify(o domain.Order) domain.Classification {
	out := domain.Classification{Outcome: domain.NotQualified, Reason: "no authoritative rule matched"}

	for _, r := range c.Rules {
		detail, ok := r.Match(o)
		if !ok {
			continue
		}
		if !r.Authoritative {
			out.Advisories = append(out.Advisories, fmt.Sprintf("%s: %s", r.Name, detail))
			continue
		}
		if out.Outcome != domain.Qualified {
			out.Outcome = domain.Qualified
			out.Reason = fmt.Sprintf("%s: %s", r.Name, detail)
			if r.Name == "sku" {
				out.MatchedSKU = detail
			}
		}
	}

	return out
}

func skuRule(sku string) func(domain.Order) (string, bool) {
	return func(o domain.Order) (string, bool) {
		if sku == "" {
			return "", false
		}
		for _, li := range o.LineItems {
			if li.SKU == sku {
				return li.SKU, true
			}
		}
		return "", false
	}
}

func titleRule(word string) func(domain.Order) (string, bool) {
	return func(o domain.Order) (string, bool) {
		for _, li := range o.LineItems {
			for _, s := range []string{li.Title, li.Name} {
				if strings.Contains(strings.ToLower(s), word) {
					return s, true
				}
			}
		}
		return "", false
	}
}

func tagRule(tag string) func(domain.Order) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(tag))
	return func(o domain.Order) (string, bool) {
		for _, t := range o.TagList() {
			if strings.ToLower(t) == want {
				return t, true
			}
		}
		return "", false
	}
}
