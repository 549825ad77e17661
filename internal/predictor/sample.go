package predictor

import (
	"math"
	"math/rand/v2"

	"helpdesk/internal/models"
)

// Categories known to the synthetic generator, in table order.
var SampleCategories = []string{
	"Technical Issue",
	"Account Support",
	"Billing",
	"Feature Request",
	"Bug Report",
	"General Inquiry",
}

var samplePhrases = map[string][]string{
	"Technical Issue": {
		"cannot login to system", "password reset not working", "system crashes frequently",
		"slow performance issues", "connection timeout errors", "database connection failed",
	},
	"Account Support": {
		"need to update profile information", "account locked out", "forgot username",
		"change email address", "deactivate account", "account permissions issue",
	},
	"Billing": {
		"incorrect charges on invoice", "payment method update", "refund request",
		"billing cycle questions", "subscription cancellation", "pricing inquiry",
	},
	"Feature Request": {
		"add new dashboard widget", "export data functionality", "mobile app feature",
		"integration with third party", "custom reporting options", "user interface improvements",
	},
	"Bug Report": {
		"button not responding", "data not saving properly", "incorrect calculations",
		"page loading errors", "missing information display", "form validation issues",
	},
	"General Inquiry": {
		"how to use new feature", "training materials request", "system requirements",
		"best practices guidance", "documentation questions", "general support",
	},
}

var samplePriorities = []string{"Low", "Medium", "High", "Critical"}

// baseHours is the (mean, stddev) of resolution hours per priority.
var baseHours = map[string][2]float64{
	"Critical": {2, 0.5},
	"High":     {8, 2},
	"Medium":   {24, 6},
	"Low":      {72, 12},
}

var categoryMultiplier = map[string]float64{
	"Technical Issue": 1.2,
	"Bug Report":      1.5,
	"Feature Request": 2.0,
	"Billing":         0.8,
	"Account Support": 0.6,
	"General Inquiry": 0.5,
}

// SampleGenerator fabricates a small labelled corpus for cold starts.
type SampleGenerator struct {
	rng *rand.Rand
}

func NewSampleGenerator(seed uint64) *SampleGenerator {
	return &SampleGenerator{rng: rand.New(rand.NewPCG(seed, seed+1))}
}

// Generate returns one example per phrase, every category included.
// Resolution hours are drawn around the priority's base time, scaled by the
// category multiplier and floored at one hour.
func (g *SampleGenerator) Generate() []models.TrainingExample {
	examples := make([]models.TrainingExample, 0, len(SampleCategories)*6)
	for _, category := range SampleCategories {
		for _, phrase := range samplePhrases[category] {
			priority := samplePriorities[g.rng.IntN(len(samplePriorities))]
			dist := baseHours[priority]
			hours := (g.rng.NormFloat64()*dist[1] + dist[0]) * categoryMultiplier[category]
			examples = append(examples, models.TrainingExample{
				Description:     phrase,
				Category:        category,
				Priority:        priority,
				ResolutionHours: math.Max(1, hours),
			})
		}
	}
	return examples
}
