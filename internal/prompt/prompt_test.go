package prompt

import (
	"strings"
	"testing"

	"github.com/ashureev/lawmate/internal/domain"
)

func TestDraftingEmbedsFactsAndCaseType(t *testing.T) {
	facts := "2024.01.01 대여금 3천만원, 이자 1%, 안 갚음"
	got := Drafting(domain.CaseTypeMoney, facts)
	if !strings.Contains(got, facts) {
		t.Fatalf("facts not embedded verbatim: %q", got)
	}
	if !strings.Contains(got, domain.CaseTypeMoney.Label()) {
		t.Fatalf("case type label missing: %q", got)
	}
}

func TestStrategyAndGuideEmbedInput(t *testing.T) {
	if got := Strategy("임대인이 보증금을 안 돌려줘요"); !strings.Contains(got, "임대인이 보증금을 안 돌려줘요") {
		t.Fatalf("strategy question missing: %q", got)
	}
	if got := Guide("100% 확실한가요"); !strings.Contains(got, "100% 확실한가요") {
		t.Fatalf("guide situation missing: %q", got)
	}
}
