package advisor

import (
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Completeness struct {
	Score      int      `json:"score"`
	Issues     []string `json:"issues"`
	IsComplete bool     `json:"isComplete"`
}

type RecommendationType string

const (
	Critical   RecommendationType = "critical"
	Important  RecommendationType = "important"
	Suggestion RecommendationType = "suggestion"
)

type Recommendation struct {
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Action      string             `json:"action"`
}

type ProductAnalysis struct {
	Price           *PriceAnalysis   `json:"price"`
	Completeness    Completeness     `json:"completeness"`
	Recommendations []Recommendation `json:"recommendations"`
}

const richDescriptionLength = 150

func (a *Advisor) AnalyzeProduct(p models.Product, catalog []models.Product) ProductAnalysis {
	price := a.AnalyzePrice(p, catalog)
	return ProductAnalysis{
		Price:           price,
		Completeness:    ProductCompleteness(p),
		Recommendations: productRecommendations(p, price),
	}
}

// ProductCompleteness scores p out of 100. Text lengths are counted in Unicode
// code points, so a character outside the BMP counts once.
func ProductCompleteness(p models.Product) Completeness {
	c := Completeness{Issues: []string{}}

	if len([]rune(p.Name)) >= 5 {
		c.Score += 20
	} else {
		c.Issues = append(c.Issues, "Name is too short (at least 5 characters recommended)")
	}
	if len([]rune(p.Description)) >= minDescriptionLength {
		c.Score += 30
	} else {
		c.Issues = append(c.Issues, "Description is too short (at least 100 characters recommended)")
	}
	if len(p.Images) > 0 {
		c.Score += 30
	} else {
		c.Issues = append(c.Issues, "Add at least one image")
	}
	if strings.TrimSpace(p.Category) != "" {
		c.Score += 10
	} else {
		c.Issues = append(c.Issues, "Category is not set")
	}
	if p.Price > 0 {
		c.Score += 10
	} else {
		c.Issues = append(c.Issues, "Price is not valid")
	}

	c.IsComplete = c.Score == 100
	return c
}

func productRecommendations(p models.Product, price *PriceAnalysis) []Recommendation {
	out := make([]Recommendation, 0)

	if len(p.Images) == 0 {
		out = append(out, Recommendation{
			Type:        Critical,
			Title:       "Add an image",
			Description: "Products with images are far more likely to sell.",
			Action:      "Upload a high quality picture of the product.",
		})
	}
	if len([]rune(p.Description)) < richDescriptionLength {
		out = append(out, Recommendation{
			Type:        Important,
			Title:       "Improve the description",
			Description: "Detailed descriptions build customer trust.",
			Action:      "Include dimensions, materials, warranty and special features.",
		})
	}
	if price.Recommendation == Increase && price.SuggestedPrice > p.Price {
		out = append(out, Recommendation{
			Type:        Suggestion,
			Title:       "Adjust the price",
			Description: fmt.Sprintf("Price is below the category average (%.2f).", price.CategoryAverage),
			Action:      fmt.Sprintf("Consider raising it to %.0f.", price.SuggestedPrice),
		})
	}
	if !p.Featured && price.Competitiveness == VeryCompetitive {
		out = append(out, Recommendation{
			Type:        Suggestion,
			Title:       "Feature the product",
			Description: "A competitively priced product can attract more customers.",
			Action:      "Mark it as featured to raise its visibility.",
		})
	}
	return out
}
