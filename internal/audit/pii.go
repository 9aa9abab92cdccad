package audit

import "regexp"

// PII detection patterns, one per recognized category. Ordering matches the
// categories reported in PIIReport.Counts.
var (
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneFRPattern    = regexp.MustCompile(`(?:(?:\+|00)33\s?|0)[1-9](?:[\s.-]?\d{2}){4}\b`)
	phoneIntlPattern  = regexp.MustCompile(`\+\d{1,3}[\s.-]?\(?\d{1,4}\)?[\s.-]?\d{1,4}[\s.-]?\d{1,9}`)
	ssnFRPattern      = regexp.MustCompile(`\b[12]\s?\d{2}\s?\d{2}\s?\d{2}\s?\d{3}\s?\d{3}\s?\d{2}\b`)
	ibanPattern       = regexp.MustCompile(`\b[A-Z]{2}\d{2}\s?(?:[A-Z0-9]{4}\s?){3,7}[A-Z0-9]{1,4}\b`)
	creditCardPattern = regexp.MustCompile(`\b(?:\d{4}[\s-]?){3}\d{1,7}\b`)
	ipAddressPattern  = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
)

// PIICounts tallies PII hits per category for one scan.
type PIICounts struct {
	Email      int `json:"email"`
	PhoneFR    int `json:"phone_fr"`
	PhoneIntl  int `json:"phone_intl"`
	SSNFR      int `json:"ssn_fr"`
	IBAN       int `json:"iban"`
	CreditCard int `json:"credit_card"`
	IPAddress  int `json:"ip_address"`
}

func (c PIICounts) total() int {
	return c.Email + c.PhoneFR + c.PhoneIntl + c.SSNFR + c.IBAN + c.CreditCard + c.IPAddress
}

// PIIReport is the result of scanning a batch of chunk texts for PII.
type PIIReport struct {
	TotalPIIFound      int       `json:"total_pii_found"`
	Counts             PIICounts `json:"pii_types"`
	ChunksWithPII      []int     `json:"chunks_with_pii"`
	ChunksWithPIICount int       `json:"chunks_with_pii_count"`
	TotalChunksScanned int       `json:"total_chunks_analyzed"`
	PIIPercentage      float64   `json:"pii_percentage"`
	Recommendations    []string  `json:"recommendations"`
}

// CriticalCount is the count of highly sensitive PII categories (SSN and
// credit card numbers) that warrant an immediate compliance alert.
func (r PIIReport) CriticalCount() int {
	return r.Counts.SSNFR + r.Counts.CreditCard
}

// overlapsAny reports whether span overlaps any span in spans. phoneFRPattern
// and phoneIntlPattern can match the same phone number over different
// substrings (phoneIntlPattern's optional separators make it stop short of
// the trailing group phoneFRPattern consumes), so matches must be compared
// by position, not by the substring text.
func overlapsAny(span []int, spans [][]int) bool {
	for _, s := range spans {
		if span[0] < s[1] && s[0] < span[1] {
			return true
		}
	}
	return false
}

// DetectPII scans every text in texts and builds a PIIReport. The
// phone_intl count excludes matches whose span overlaps a phone_fr match, to
// avoid double-counting a French number that also matches the generic
// international pattern.
func DetectPII(texts []string) PIIReport {
	var counts PIICounts
	var chunksWithPII []int

	for idx, text := range texts {
		if text == "" {
			continue
		}
		hasPII := false

		if n := len(emailPattern.FindAllString(text, -1)); n > 0 {
			counts.Email += n
			hasPII = true
		}

		frSpans := phoneFRPattern.FindAllStringIndex(text, -1)
		if len(frSpans) > 0 {
			counts.PhoneFR += len(frSpans)
			hasPII = true
		}

		intlSpans := phoneIntlPattern.FindAllStringIndex(text, -1)
		intlUnique := 0
		for _, intl := range intlSpans {
			if !overlapsAny(intl, frSpans) {
				intlUnique++
			}
		}
		if intlUnique > 0 {
			counts.PhoneIntl += intlUnique
			hasPII = true
		}

		if n := len(ssnFRPattern.FindAllString(text, -1)); n > 0 {
			counts.SSNFR += n
			hasPII = true
		}
		if n := len(ibanPattern.FindAllString(text, -1)); n > 0 {
			counts.IBAN += n
			hasPII = true
		}
		if n := len(creditCardPattern.FindAllString(text, -1)); n > 0 {
			counts.CreditCard += n
			hasPII = true
		}
		if n := len(ipAddressPattern.FindAllString(text, -1)); n > 0 {
			counts.IPAddress += n
			hasPII = true
		}

		if hasPII {
			chunksWithPII = append(chunksWithPII, idx)
		}
	}

	total := counts.total()
	report := PIIReport{
		TotalPIIFound:      total,
		Counts:             counts,
		ChunksWithPII:      chunksWithPII,
		ChunksWithPIICount: len(chunksWithPII),
		TotalChunksScanned: len(texts),
		Recommendations:    recommendationsFor(counts, total),
	}
	if len(texts) > 0 {
		report.PIIPercentage = roundTo2(float64(len(chunksWithPII)) / float64(len(texts)) * 100)
	}
	return report
}

func roundTo2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func recommendationsFor(c PIICounts, total int) []string {
	if total == 0 {
		return []string{"no personal data detected by the automated scan"}
	}

	recs := []string{"personal data detected - verify GDPR/RGPD compliance"}
	if c.Email > 0 {
		recs = append(recs, "email address(es) detected - consent required under RGPD Art. 6")
	}
	if c.PhoneFR+c.PhoneIntl > 0 {
		recs = append(recs, "phone number(s) detected - data minimization required")
	}
	if c.SSNFR > 0 {
		recs = append(recs, "national ID number(s) detected - CRITICAL - encryption mandatory")
	}
	if c.IBAN > 0 {
		recs = append(recs, "IBAN(s) detected - sensitive data - reinforced security measures")
	}
	if c.CreditCard > 0 {
		recs = append(recs, "credit card number(s) detected - CRITICAL - PCI DSS compliance required")
	}
	if c.IPAddress > 0 {
		recs = append(recs, "IP address(es) detected - pseudonymization recommended")
	}
	recs = append(recs, "required actions: notify DPO, run a DPIA, update the processing register")
	return recs
}
