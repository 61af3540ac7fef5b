package advisor

import (
	"fmt"
	"math"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Features describes which browsing aids the storefront offers.
type Features struct {
	Search  bool `json:"search"`
	Filters bool `json:"filters"`
}

type SiteInput struct {
	Products   []models.Product
	OrderCount int
	UserCount  int
	Features   Features
}

type CategoryScore struct {
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

type SiteCategories struct {
	Products   CategoryScore `json:"products"`
	Prices     CategoryScore `json:"prices"`
	Conversion CategoryScore `json:"conversion"`
	Experience CategoryScore `json:"experience"`
}

type SiteReport struct {
	Score           int            `json:"score"`
	MaxScore        int            `json:"maxScore"`
	ConversionRate  float64        `json:"conversionRate"`
	Categories      SiteCategories `json:"categories"`
	PriorityActions []string       `json:"priorityActions"`
}

const maxPriorityActions = 5

type siteInput struct {
	Prices     []float64 `json:"prices"`
	NoImage    int       `json:"noImage"`
	Featured   int       `json:"featured"`
	OrderCount int       `json:"orders"`
	UserCount  int       `json:"users"`
	Features   Features  `json:"features"`
}

// PriceTier buckets a price into economy, medium, premium or luxury.
func PriceTier(price float64) string {
	switch {
	case price < 1000:
		return "economy"
	case price < 5000:
		return "medium"
	case price < 15000:
		return "premium"
	default:
		return "luxury"
	}
}

// AnalyzeSiteImprovements scores the storefront as a whole. The returned value is
// shared with later calls for the same inputs and must not be modified.
func (a *Advisor) AnalyzeSiteImprovements(in SiteInput) *SiteReport {
	si := siteInput{
		Prices:     make([]float64, 0, len(in.Products)),
		OrderCount: in.OrderCount,
		UserCount:  in.UserCount,
		Features:   in.Features,
	}
	for _, p := range in.Products {
		si.Prices = append(si.Prices, p.Price)
		if len(p.Images) == 0 {
			si.NoImage++
		}
		if p.Featured {
			si.Featured++
		}
	}
	return lookup(a, a.site, contentKey("site", si), func() *SiteReport { return analyzeSite(si) })
}

func analyzeSite(in siteInput) *SiteReport {
	rep := &SiteReport{MaxScore: 100}
	cat := &rep.Categories
	cat.Products.Suggestions = []string{}
	cat.Prices.Suggestions = []string{}
	cat.Conversion.Suggestions = []string{}
	cat.Experience.Suggestions = []string{}

	switch n := len(in.Prices); {
	case n < 10:
		cat.Products.Score = 60
		cat.Products.Suggestions = append(cat.Products.Suggestions, "Add more products to the catalog. Aim for at least 15 to 20.")
	case n < 20:
		cat.Products.Score = 80
		cat.Products.Suggestions = append(cat.Products.Suggestions, "Good number of products. Consider adding more variety.")
	default:
		cat.Products.Score = 100
	}
	if in.NoImage > 0 {
		cat.Products.Score -= 10
		cat.Products.Suggestions = append(cat.Products.Suggestions,
			fmt.Sprintf("%d product(s) without an image. Add images to convert better.", in.NoImage))
	}
	if in.Featured < 3 {
		cat.Products.Suggestions = append(cat.Products.Suggestions, "Feature more products (4 to 6 recommended).")
	}

	tiers := make(map[string]struct{})
	for _, p := range in.Prices {
		tiers[PriceTier(p)] = struct{}{}
	}
	if len(tiers) >= 3 {
		cat.Prices.Score = 100
		cat.Prices.Suggestions = append(cat.Prices.Suggestions, "Good spread of price ranges. It serves different customer profiles.")
	} else {
		cat.Prices.Score = 70
		cat.Prices.Suggestions = append(cat.Prices.Suggestions, "Add products in other price ranges to reach more customers.")
	}

	if in.UserCount > 0 {
		rep.ConversionRate = float64(in.OrderCount) / float64(in.UserCount) * 100
	}
	switch {
	case rep.ConversionRate > 30:
		cat.Conversion.Score = 100
	case rep.ConversionRate > 15:
		cat.Conversion.Score = 75
		cat.Conversion.Suggestions = append(cat.Conversion.Suggestions, "Conversion could be better. Consider special offers or promotions.")
	default:
		cat.Conversion.Score = 50
		cat.Conversion.Suggestions = append(cat.Conversion.Suggestions, "Low conversion. Review the checkout flow and add incentives.")
	}

	cat.Experience.Score = 100
	if !in.Features.Search {
		cat.Experience.Score -= 15
		cat.Experience.Suggestions = append(cat.Experience.Suggestions, "Add product search to improve navigation.")
	}
	if !in.Features.Filters {
		cat.Experience.Score -= 15
		cat.Experience.Suggestions = append(cat.Experience.Suggestions, "Add product filters (category, price) to ease browsing.")
	}

	rep.Score = int(math.Round(
		float64(cat.Products.Score)*0.3 +
			float64(cat.Prices.Score)*0.2 +
			float64(cat.Conversion.Score)*0.3 +
			float64(cat.Experience.Score)*0.2))

	actions := make([]string, 0, maxPriorityActions)
	actions = append(actions, head(cat.Products.Suggestions, 2)...)
	actions = append(actions, head(cat.Prices.Suggestions, 1)...)
	actions = append(actions, head(cat.Conversion.Suggestions, 1)...)
	actions = append(actions, head(cat.Experience.Suggestions, 1)...)
	rep.PriorityActions = head(actions, maxPriorityActions)
	return rep
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
