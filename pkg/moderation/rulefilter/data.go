package rulefilter

// Default denylist, grouped by policy category. These terms block
// outright: rule hits are used for policy compliance, so the list stays
// closed and auditable rather than statistical.
var defaultDenylist = map[string][]string{
	"financial_scheme": {
		"crypto",
		"forex",
		"investment",
		"get rich quick",
		"guaranteed returns",
		"double your money",
	},
	"adult": {
		"adult",
		"xxx",
		"escort",
	},
}
