// Package domain contains core domain types for the lawmate application.
package domain

import "strings"

// CaseType tags the kind of court filing a drafting request is for.
type CaseType string

const (
	CaseTypeGeneral      CaseType = "general"
	CaseTypeMoney        CaseType = "money"
	CaseTypeEviction     CaseType = "eviction"
	CaseTypePaymentOrder CaseType = "payment_order"
	CaseTypeUnified      CaseType = "unified"
)

var caseTypeLabels = map[CaseType]string{
	CaseTypeGeneral:      "일반 민사",
	CaseTypeMoney:        "대여금/금전 청구",
	CaseTypeEviction:     "부동산 명도",
	CaseTypePaymentOrder: "지급명령",
	CaseTypeUnified:      "통합(유형 미상)",
}

// CaseTypes lists the accepted tags in display order.
func CaseTypes() []CaseType {
	return []CaseType{
		CaseTypeGeneral,
		CaseTypeMoney,
		CaseTypeEviction,
		CaseTypePaymentOrder,
		CaseTypeUnified,
	}
}

// ParseCaseType maps a free-form tag onto a known case type.
// Unknown or empty tags map to CaseTypeUnified.
func ParseCaseType(raw string) CaseType {
	ct := CaseType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := caseTypeLabels[ct]; ok {
		return ct
	}
	return CaseTypeUnified
}

// Label returns the Korean label embedded into prompts.
func (c CaseType) Label() string {
	if label, ok := caseTypeLabels[c]; ok {
		return label
	}
	return caseTypeLabels[CaseTypeUnified]
}
