package ingredient

// AddPayload carries the ingredient.add command and ingredient.added event body.
type AddPayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit,omitempty"`
}

// ConsumePayload carries the ingredient.consume command and
// ingredient.consumed event body.
type ConsumePayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	// Reason records what consumed the stock, e.g. a recipe name.
	Reason string `json:"reason,omitempty"`
}
