package domain

// AgentRun is a run record fetched from the trace API. Timestamps are kept
// as received so that malformed values surface as NaN durations instead of
// decode failures.
type AgentRun struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Inputs      map[string]interface{} `json:"inputs,omitempty"`
	Outputs     map[string]interface{} `json:"outputs,omitempty"`
	StartTime   string                 `json:"start_time"`
	EndTime     string                 `json:"end_time"`
	TotalTokens int                    `json:"total_tokens"`
	RunType     string                 `json:"run_type"`
	ChildRunIDs []string               `json:"child_run_ids,omitempty"`
}
