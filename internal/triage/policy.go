package triage

// Policy holds the runtime decision flags loaded from the config store.
// Threshold must already be validated into [0,1]; Decide does not clamp.
type Policy struct {
	AutoCloseEnabled    bool
	ConfidenceThreshold float64
}

// Decision is the terminal outcome of a triage run. AutoClose and
// AssignToHuman are always complementary.
type Decision struct {
	AutoClose     bool
	AssignToHuman bool
}

// Decide applies the configured threshold to the classifier confidence. The
// comparison is inclusive: confidence exactly at the threshold auto-closes
// when auto-close is enabled.
func Decide(confidence float64, policy Policy) Decision {
	autoClose := policy.AutoCloseEnabled && confidence >= policy.ConfidenceThreshold
	return Decision{AutoClose: autoClose, AssignToHuman: !autoClose}
}
