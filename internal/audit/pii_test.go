package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPIIEmailAndPhone(t *testing.T) {
	report := DetectPII([]string{"Contact: john@example.com, Tel: +33612345678"})
	assert.Equal(t, 1, report.Counts.Email)
	assert.Equal(t, 1, report.Counts.PhoneFR)
	assert.Equal(t, 2, report.TotalPIIFound)
	assert.Equal(t, []int{0}, report.ChunksWithPII)
}

func TestDetectPIINoMatches(t *testing.T) {
	report := DetectPII([]string{"Nothing sensitive in this text."})
	assert.Equal(t, 0, report.TotalPIIFound)
	assert.Empty(t, report.ChunksWithPII)
	assert.Equal(t, 0.0, report.PIIPercentage)
}

func TestDetectPIIPhoneIntlNotDoubleCountedWithFR(t *testing.T) {
	report := DetectPII([]string{"Appelez le +33612345678 dès que possible."})
	assert.Equal(t, 1, report.Counts.PhoneFR)
	assert.Equal(t, 0, report.Counts.PhoneIntl)
}

func TestDetectPIIPhoneIntlNotDoubleCountedWithSpacedFRNumber(t *testing.T) {
	report := DetectPII([]string{"Email: jean.dupont@example.fr, Tel: +33 6 12 34 56 78"})
	assert.Equal(t, 1, report.Counts.Email)
	assert.Equal(t, 1, report.Counts.PhoneFR)
	assert.Equal(t, 0, report.Counts.PhoneIntl)
	assert.Equal(t, 2, report.TotalPIIFound)
}

func TestDetectPIICreditCardAndSSNCritical(t *testing.T) {
	report := DetectPII([]string{"Card: 4111 1111 1111 1111"})
	assert.Equal(t, 1, report.Counts.CreditCard)
	assert.Equal(t, 1, report.CriticalCount())
}

func TestDetectPIIEmptyInput(t *testing.T) {
	report := DetectPII(nil)
	assert.Equal(t, 0, report.TotalPIIFound)
	assert.Equal(t, 0, report.TotalChunksScanned)
}

func TestDetectPIIPercentage(t *testing.T) {
	report := DetectPII([]string{"john@example.com", "nothing here", "jane@example.com"})
	assert.Equal(t, 2, report.ChunksWithPIICount)
	assert.InDelta(t, 66.67, report.PIIPercentage, 0.01)
}
