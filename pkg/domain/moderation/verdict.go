package moderation

// Reason explains why a Verdict allowed or blocked a piece of content.
type Reason string

const (
	ReasonRuleBlocked  Reason = "RULE_BLOCKED"
	ReasonModelBlocked Reason = "MODEL_BLOCKED"
	ReasonAllowed      Reason = "ALLOWED"
)

// Verdict is the decision record for one moderated input. ScamScore is
// nil when the rule filter blocked the text before the classifier ran.
type Verdict struct {
	PassedRuleFilter bool     `json:"passed_rule_filter"`
	ScamScore        *float64 `json:"scam_score,omitempty"`
	Allowed          bool     `json:"allowed"`
	Reason           Reason   `json:"reason"`
	ModelVersion     string   `json:"model_version,omitempty"`
}
