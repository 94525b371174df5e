package recipe

// AddPayload carries the recipe.add command and recipe.added event body.
type AddPayload struct {
	Name            string `json:"name"`
	CookTimeMinutes int    `json:"cook_time_minutes"`
	Items           []Item `json:"items,omitempty"`
}

// RemovePayload carries the recipe.remove command and recipe.removed event body.
type RemovePayload struct {
	Name string `json:"name"`
}
