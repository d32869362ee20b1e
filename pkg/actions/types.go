package actions

// Intent is one candidate design intent extracted from the user's request.
type Intent struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Terms       string `json:"terms"` // comma-separated biological terms
}

// Annotation binds a GO or EC number to its claimed meaning. ValDef is
// filled by validation against the public databases; Match records whether
// the validated definition agrees with the design intent.
type Annotation struct {
	Number     string `json:"number"`
	Annotation string `json:"annotation,omitempty"`
	ValDef     string `json:"val_def,omitempty"`
	Match      string `json:"match,omitempty"` // Y or N
}

// IntentAnnotations groups the annotations of one intent, plus the fields
// the review steps add.
type IntentAnnotations struct {
	Intent           string       `json:"intent"`
	Annotations      []Annotation `json:"annotations"`
	Report           string       `json:"report,omitempty"`
	DesignSuggestion string       `json:"design suggestion,omitempty"`
	MismatchedTerms  []Annotation `json:"mismatched terms,omitempty"`
}

// HasMismatch reports whether any annotation failed validation.
func (ia IntentAnnotations) HasMismatch() bool {
	for _, a := range ia.Annotations {
		if a.Match == "N" {
			return true
		}
	}
	return len(ia.MismatchedTerms) > 0
}
