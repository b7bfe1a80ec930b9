package classifier

import (
	"strings"

	"github.com/dmikhr/freshkeep/internal/model"
)

// DefaultMinConfidence is the acceptance cutoff below which a prediction is
// surfaced as informational only, never auto-filled into the form.
const DefaultMinConfidence = 0.6

// Suggestion is what the pipeline offers back to the add/edit form.
type Suggestion struct {
	// Name is the top label normalized for display.
	Name string `json:"name"`
	// Category is empty when no keyword matched; callers keep whatever
	// category is already selected.
	Category   model.Category `json:"category,omitempty"`
	Confidence float64        `json:"confidence"`
	// Accepted is false when confidence fell below the cutoff. The
	// suggestion is still returned so the UI can mention it.
	Accepted bool `json:"accepted"`
}

// fruitKeywords and vegetableKeywords map classifier labels onto the two
// categories the model can distinguish. Unmatched labels leave the
// category unchanged.
var fruitKeywords = []string{
	"apple", "banana", "orange", "grape", "mango", "pineapple", "strawberry",
	"watermelon", "kiwi", "lemon", "pear", "peach", "pomegranate",
}

var vegetableKeywords = []string{
	"carrot", "potato", "tomato", "onion", "spinach", "lettuce", "cabbage",
	"cauliflower", "broccoli", "cucumber", "capsicum", "pepper", "beetroot",
	"corn", "garlic", "ginger", "radish", "turnip", "peas", "eggplant",
}

// Suggest reduces a prediction list to a single form suggestion using only
// the top-ranked entry.
func Suggest(predictions []model.Prediction, minConfidence float64) (Suggestion, bool) {
	if len(predictions) == 0 {
		return Suggestion{}, false
	}
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	top := predictions[0]
	return Suggestion{
		Name:       NormalizeLabel(top.Label),
		Category:   CategoryForLabel(top.Label),
		Confidence: top.Confidence,
		Accepted:   top.Confidence >= minConfidence,
	}, true
}

// NormalizeLabel turns an underscore-delimited model label like
// "bell_pepper" into "Bell Pepper".
func NormalizeLabel(label string) string {
	words := strings.Split(strings.ReplaceAll(label, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// CategoryForLabel maps a label onto fruits or vegetables via the keyword
// lists. An empty result means no match.
func CategoryForLabel(label string) model.Category {
	lower := strings.ToLower(label)
	for _, kw := range fruitKeywords {
		if strings.Contains(lower, kw) {
			return model.CategoryFruits
		}
	}
	for _, kw := range vegetableKeywords {
		if strings.Contains(lower, kw) {
			return model.CategoryVegetables
		}
	}
	return ""
}
