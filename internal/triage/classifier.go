package triage

import (
	"math"
	"strings"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// ClassifierName identifies the heuristic provider in suggestion provenance.
const ClassifierName = "keyword-heuristic-v1"

// Prediction is the classifier output fed into the decision policy.
type Prediction struct {
	Category   domain.TicketCategory
	Confidence float64
	Hits       int
}

// categoryKeywords maps each category to its keyword set. Declaration order is
// the tie-break order, so it must stay stable.
var categoryOrder = []domain.TicketCategory{
	domain.CategoryBilling,
	domain.CategoryTech,
	domain.CategoryShipping,
}

var categoryKeywords = map[domain.TicketCategory][]string{
	domain.CategoryBilling: {
		"refund", "payment", "charge", "invoice", "billing",
		"subscription", "price", "credit card", "overcharged",
	},
	domain.CategoryTech: {
		"error", "bug", "crash", "login", "password",
		"broken", "not working", "timeout", "install",
	},
	domain.CategoryShipping: {
		"delivery", "shipping", "package", "tracking", "shipment",
		"courier", "delayed", "lost parcel", "address",
	},
}

// Classify scores free text against the category keyword sets and returns the
// winning category with a confidence score.
//
// Each keyword counts at most once per category regardless of repetition; the
// category with the most hits wins, ties broken by declaration order. When no
// category scores above zero the result is OTHER.
//
// Confidence is round2(min(1, hits/3)), with a 0.4 floor when hits == 0. The
// formula is part of the public contract: the decision policy compares it
// against the configured auto-close threshold.
func Classify(text string) Prediction {
	lowered := strings.ToLower(text)

	best := Prediction{Category: domain.CategoryOther}
	for _, category := range categoryOrder {
		hits := 0
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lowered, keyword) {
				hits++
			}
		}
		if hits > best.Hits {
			best = Prediction{Category: category, Hits: hits}
		}
	}

	best.Confidence = confidenceFromHits(best.Hits)
	return best
}

func confidenceFromHits(hits int) float64 {
	if hits == 0 {
		return 0.4
	}
	return round2(math.Min(1, float64(hits)/3))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
