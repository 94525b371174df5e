package shift

// OpenPayload carries the shift.open command and shift.opened event body.
type OpenPayload struct {
	ShiftID string `json:"shift_id"`
	Name    string `json:"name,omitempty"`
}

// ClosePayload carries the shift.close command and shift.closed event body.
type ClosePayload struct {
	ShiftID string `json:"shift_id,omitempty"`
}
