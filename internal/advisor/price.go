package advisor

import (
	"fmt"
	"math"
	"sort"

	"github.com/Skotchmaster/storefront/internal/models"
)

type Competitiveness string

const (
	VeryCompetitive Competitiveness = "very competitive"
	Competitive     Competitiveness = "competitive"
	Average         Competitiveness = "average"
	AboveAverage    Competitiveness = "above average"
)

type PriceAction string

const (
	Increase PriceAction = "increase"
	Decrease PriceAction = "decrease"
	Keep     PriceAction = "keep"
)

const minDescriptionLength = 100

type PriceAnalysis struct {
	CurrentPrice    float64         `json:"currentPrice"`
	CategoryAverage float64         `json:"categoryAverage"`
	CategoryMin     float64         `json:"categoryMin"`
	CategoryMax     float64         `json:"categoryMax"`
	PeerCount       int             `json:"peerCount"`
	Recommendation  PriceAction     `json:"recommendation"`
	SuggestedPrice  float64         `json:"suggestedPrice"`
	Competitiveness Competitiveness `json:"competitiveness"`
	Insights        []string        `json:"insights"`
	Warnings        []string        `json:"warnings"`
}

type priceInput struct {
	ID         string    `json:"id"`
	Price      float64   `json:"price"`
	Category   string    `json:"category"`
	DescLen    int       `json:"descLen"`
	HasImage   bool      `json:"hasImage"`
	Featured   bool      `json:"featured"`
	PeerPrices []float64 `json:"peerPrices"`
}

// categoryPeers are the other products of p's category.
func categoryPeers(p models.Product, catalog []models.Product) []models.Product {
	out := make([]models.Product, 0)
	for _, q := range catalog {
		if q.Category == p.Category && q.ID != p.ID {
			out = append(out, q)
		}
	}
	return out
}

// AnalyzePrice compares p with the rest of its category. The returned value is
// shared with later calls for the same inputs and must not be modified.
func (a *Advisor) AnalyzePrice(p models.Product, catalog []models.Product) *PriceAnalysis {
	peers := categoryPeers(p, catalog)
	prices := make([]float64, len(peers))
	for i, q := range peers {
		prices[i] = q.Price
	}
	sort.Float64s(prices)

	// DescLen is only part of the cache key; code points are enough.
	in := priceInput{
		ID: p.ID, Price: p.Price, Category: p.Category, DescLen: len([]rune(p.Description)),
		HasImage: len(p.Images) > 0, Featured: p.Featured, PeerPrices: prices,
	}
	return lookup(a, a.price, contentKey("price", in), func() *PriceAnalysis { return analyzePrice(in) })
}

func analyzePrice(in priceInput) *PriceAnalysis {
	res := &PriceAnalysis{
		CurrentPrice:    in.Price,
		Recommendation:  Keep,
		SuggestedPrice:  in.Price,
		Competitiveness: Average,
		PeerCount:       len(in.PeerPrices),
		Insights:        []string{},
		Warnings:        []string{},
	}

	if len(in.PeerPrices) > 0 {
		var sum float64
		for _, v := range in.PeerPrices {
			sum += v
		}
		avg := sum / float64(len(in.PeerPrices))
		res.CategoryAverage = avg
		res.CategoryMin = in.PeerPrices[0]
		res.CategoryMax = in.PeerPrices[len(in.PeerPrices)-1]

		switch {
		case in.Price < avg*0.8:
			res.Competitiveness = VeryCompetitive
			res.Insights = append(res.Insights, "Price is well below the category average. Consider raising it to improve margins.")
		case in.Price < avg:
			res.Competitiveness = Competitive
			res.Insights = append(res.Insights, "Price is competitive within the category.")
		case in.Price > avg*1.2:
			res.Competitiveness = AboveAverage
			res.Warnings = append(res.Warnings, "Price is above the category average. Make sure the product justifies a premium.")
		}

		switch {
		case in.Price < avg*0.7:
			res.Recommendation = Increase
			res.SuggestedPrice = math.Round(avg * 0.9)
			res.Insights = append(res.Insights, fmt.Sprintf("Suggestion: raise the price to %.0f for a better position.", res.SuggestedPrice))
		case in.Price > avg*1.3:
			res.Recommendation = Decrease
			res.SuggestedPrice = math.Round(avg * 1.1)
			res.Insights = append(res.Insights, fmt.Sprintf("Suggestion: lower the price to %.0f to be more competitive.", res.SuggestedPrice))
		default:
			res.Insights = append(res.Insights, "Price is well positioned in the market.")
		}

		if in.Featured && in.Price > avg*1.2 {
			res.Insights = append(res.Insights, "A featured product at a premium price can work as brand positioning.")
		}
	} else {
		res.Insights = append(res.Insights, "First product in this category. Its price becomes the reference for future products.")
	}

	if !in.HasImage {
		res.Warnings = append(res.Warnings, "Products without an image sell less. Add a good quality image.")
	}
	if in.DescLen < minDescriptionLength {
		res.Warnings = append(res.Warnings, "Description is too short. Detailed descriptions convert better.")
	}
	return res
}
