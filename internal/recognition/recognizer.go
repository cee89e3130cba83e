// Package recognition turns a meal photo into a food estimate. Only a mock
// catalog-backed recognizer ships; real image analysis plugs in behind
// Recognizer.
package recognition

import (
	"context"
	"errors"
	"math/rand"
	"sync"
)

// Image is an uploaded meal photo.
type Image struct {
	Data        []byte
	ContentType string
	URL         string // where the photo is stored, if anywhere
}

// FoodEstimate is what a recognizer believes is on the plate.
type FoodEstimate struct {
	FoodName string  `json:"food_name"`
	Calories int     `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

var ErrEmptyImage = errors.New("empty image")

type Recognizer interface {
	Recognize(ctx context.Context, img Image) (FoodEstimate, error)
}

// Catalog is the fixed set of dishes the mock picks from.
var Catalog = []FoodEstimate{
	{FoodName: "Rice and beans", Calories: 350, ProteinG: 12, CarbsG: 65, FatG: 5},
	{FoodName: "Grilled chicken", Calories: 280, ProteinG: 45, CarbsG: 0, FatG: 10},
	{FoodName: "Green salad", Calories: 80, ProteinG: 3, CarbsG: 15, FatG: 2},
	{FoodName: "Spaghetti bolognese", Calories: 450, ProteinG: 20, CarbsG: 60, FatG: 15},
	{FoodName: "Margherita pizza", Calories: 520, ProteinG: 18, CarbsG: 55, FatG: 22},
	{FoodName: "Hamburger", Calories: 680, ProteinG: 30, CarbsG: 45, FatG: 35},
	{FoodName: "Sushi", Calories: 320, ProteinG: 15, CarbsG: 50, FatG: 8},
	{FoodName: "Fruit smoothie", Calories: 180, ProteinG: 5, CarbsG: 40, FatG: 2},
	{FoodName: "Vegetable omelette", Calories: 220, ProteinG: 18, CarbsG: 8, FatG: 14},
	{FoodName: "Fresh sandwich", Calories: 290, ProteinG: 15, CarbsG: 35, FatG: 10},
}

// Mock picks a catalog dish at random. The source is injected so tests can
// seed it; Mock is safe for concurrent use.
type Mock struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewMock(rnd *rand.Rand) *Mock {
	return &Mock{rnd: rnd}
}

// NewSeededMock is NewMock over a fresh source seeded with seed.
func NewSeededMock(seed int64) *Mock {
	return NewMock(rand.New(rand.NewSource(seed)))
}

func (m *Mock) Recognize(ctx context.Context, img Image) (FoodEstimate, error) {
	if err := ctx.Err(); err != nil {
		return FoodEstimate{}, err
	}
	if len(img.Data) == 0 && img.URL == "" {
		return FoodEstimate{}, ErrEmptyImage
	}
	m.mu.Lock()
	i := m.rnd.Intn(len(Catalog))
	m.mu.Unlock()
	return Catalog[i], nil
}
