package domain

// Intent is a coarse query category inferred from pattern and keyword matching
type Intent string

const (
	IntentNone        Intent = "none"
	IntentFacialCare  Intent = "facial-care"
	IntentHairCare    Intent = "hair-care"
	IntentOralCare    Intent = "oral-care"
	IntentKitchen     Intent = "kitchen"
	IntentBathroom    Intent = "bathroom"
	IntentEcoFriendly Intent = "eco-friendly"
	IntentMaterials   Intent = "materials"
	IntentCleaning    Intent = "cleaning"
)

// IntentResult is the outcome of classifying one query
type IntentResult struct {
	Intent     Intent `json:"intent"`
	Confidence int    `json:"confidence"`
}

// Detected reports whether a category was recognized with positive confidence.
func (r IntentResult) Detected() bool {
	return r.Intent != IntentNone && r.Confidence > 0
}
