package checkup

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/deviation"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/extract"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/projects"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/qualifications"
	"github.com/oliverhe202018-ctrl/medi-bid-flow/internal/requirements"
)

// Package is everything the rules look at for one bid document.
type Package struct {
	Project      projects.Project
	FileName     string
	ProductModel string
	Bid          extract.Document
	// TenderText is the text of the project's tender document, if uploaded.
	TenderText      string
	Requirements    []requirements.Requirement
	ScoringItems    []requirements.ScoringItem
	Deviations      []deviation.Record
	Qualifications  []qualifications.Evaluated
	CompetitorNames []string

	folded string
}

// body returns the bid text folded for substring matching.
func (p *Package) body() string {
	if p.folded == "" && p.Bid.Text != "" {
		p.folded = foldText(p.Bid.Text)
	}
	return p.folded
}

// Mentions reports whether the bid text contains term, ignoring width,
// case and whitespace.
func (p *Package) Mentions(term string) bool {
	t := foldText(term)
	return t != "" && strings.Contains(p.body(), t)
}

func (p *Package) requirementsOf(category string) []requirements.Requirement {
	out := make([]requirements.Requirement, 0)
	for _, r := range p.Requirements {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

func foldText(s string) string {
	s = strings.ToLower(requirements.Normalize(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// listNames quotes up to max names for a description.
func listNames(names []string, max int) string {
	shown := names
	if len(shown) > max {
		shown = shown[:max]
	}
	out := "“" + strings.Join(shown, "”、“") + "”"
	if len(names) > max {
		out += " 等 " + strconv.Itoa(len(names)) + " 项"
	}
	return out
}
