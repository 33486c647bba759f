package finance

// CalculateLoanInterest returns simple interest on principal for an annual
// rate given in percent over termMonths. A non-positive term counts as one month.
func CalculateLoanInterest(principal, annualRatePercent float64, termMonths int) float64 {
	if principal <= 0 || annualRatePercent <= 0 {
		return 0
	}
	if termMonths <= 0 {
		termMonths = 1
	}
	return principal * annualRatePercent / 100 * float64(termMonths) / 12
}
