package triage

import (
	"testing"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

func TestClassifyEmptyText(t *testing.T) {
	got := Classify("")
	if got.Category != domain.CategoryOther {
		t.Errorf("Classify(\"\").Category = %q, want %q", got.Category, domain.CategoryOther)
	}
	if got.Confidence != 0.4 {
		t.Errorf("Classify(\"\").Confidence = %v, want 0.4", got.Confidence)
	}
}

func TestClassifyBilling(t *testing.T) {
	got := Classify("I need a refund for my payment")
	if got.Category != domain.CategoryBilling {
		t.Errorf("category = %q, want %q", got.Category, domain.CategoryBilling)
	}
	if got.Confidence <= 0.5 {
		t.Errorf("confidence = %v, want > 0.5", got.Confidence)
	}
}

func TestClassifyCategories(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		category   domain.TicketCategory
		confidence float64
	}{
		{
			name:       "tech with two hits",
			text:       "I get an error when I try to login",
			category:   domain.CategoryTech,
			confidence: 0.67,
		},
		{
			name:       "shipping",
			text:       "my package tracking shows the delivery is delayed",
			category:   domain.CategoryShipping,
			confidence: 1,
		},
		{
			name:       "no keyword falls back to other",
			text:       "just wanted to say thanks",
			category:   domain.CategoryOther,
			confidence: 0.4,
		},
		{
			name:       "keyword repeated counts once",
			text:       "refund refund refund",
			category:   domain.CategoryBilling,
			confidence: 0.33,
		},
		{
			name:       "case insensitive",
			text:       "REFUND my INVOICE",
			category:   domain.CategoryBilling,
			confidence: 0.67,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Category != tt.category {
				t.Errorf("Classify(%q).Category = %q, want %q", tt.text, got.Category, tt.category)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("Classify(%q).Confidence = %v, want %v", tt.text, got.Confidence, tt.confidence)
			}
		})
	}
}

func TestClassifyTieBreaksByDeclarationOrder(t *testing.T) {
	// One billing keyword and one tech keyword: billing is declared first.
	got := Classify("refund error")
	if got.Category != domain.CategoryBilling {
		t.Errorf("tie broke to %q, want %q", got.Category, domain.CategoryBilling)
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	got := Classify("refund payment charge invoice billing subscription")
	if got.Confidence != 1 {
		t.Errorf("confidence = %v, want capped at 1", got.Confidence)
	}
}
