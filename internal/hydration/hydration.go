package hydration

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/fjod/shopclassy/internal/domain"
)

//go:embed data/content.yaml
var defaultContent []byte

var ErrRoutineNotFound = errors.New("routine not found")

type Category string

const (
	Morning Category = "morning"
	Evening Category = "evening"
	General Category = "general"
)

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

const anySkin = "all"

var hydrationKeywords = []string{"hydrating", "moisturizer", "serum", "cream", "hydration", "moisture"}

type Tip struct {
	ID          int      `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	Category    Category `json:"category" yaml:"category"`
	SkinType    []string `json:"skinType" yaml:"skin_type"`
	Icon        string   `json:"icon" yaml:"icon"`
	Topics      []string `json:"-" yaml:"topics"`
}

type Routine struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Steps       []Tip      `json:"steps"`
	SkinType    []string   `json:"skinType"`
	Duration    string     `json:"duration"`
	Difficulty  Difficulty `json:"difficulty"`
}

type Stats struct {
	TotalTips     int        `json:"totalTips"`
	TotalRoutines int        `json:"totalRoutines"`
	Categories    []Category `json:"categories"`
}

// ProductLookup resolves the built-in recommendations.
type ProductLookup interface {
	FindProduct(id int64) (domain.Product, bool)
}

type contentFile struct {
	RecommendedProductIDs []int64 `yaml:"recommended_product_ids"`
	Tips                  []Tip   `yaml:"tips"`
	Routines              []struct {
		ID          int        `yaml:"id"`
		Name        string     `yaml:"name"`
		Description string     `yaml:"description"`
		Steps       []int      `yaml:"steps"`
		SkinType    []string   `yaml:"skin_type"`
		Duration    string     `yaml:"duration"`
		Difficulty  Difficulty `yaml:"difficulty"`
	} `yaml:"routines"`
}

// Service serves hydration tips and routines. Content is read-only after
// construction, so a Service is safe for concurrent use.
type Service struct {
	tips        []Tip
	routines    []Routine
	recommended []int64
	products    ProductLookup
}

func NewService(products ProductLookup) (*Service, error) {
	return Parse(defaultContent, products)
}

func Parse(data []byte, products ProductLookup) (*Service, error) {
	var f contentFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode hydration content: %w", err)
	}

	byID := make(map[int]Tip, len(f.Tips))
	for _, tip := range f.Tips {
		if _, dup := byID[tip.ID]; dup {
			return nil, fmt.Errorf("duplicate tip id %d", tip.ID)
		}
		byID[tip.ID] = tip
	}

	routines := make([]Routine, 0, len(f.Routines))
	for _, r := range f.Routines {
		steps := make([]Tip, 0, len(r.Steps))
		for _, id := range r.Steps {
			tip, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("routine %d references unknown tip %d", r.ID, id)
			}
			steps = append(steps, tip)
		}
		routines = append(routines, Routine{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Steps:       steps,
			SkinType:    r.SkinType,
			Duration:    r.Duration,
			Difficulty:  r.Difficulty,
		})
	}

	return &Service{
		tips:        f.Tips,
		routines:    routines,
		recommended: f.RecommendedProductIDs,
		products:    products,
	}, nil
}

func (s *Service) Tips() []Tip {
	return slices.Clone(s.tips)
}

func (s *Service) TipsByCategory(c Category) []Tip {
	return filter(s.tips, func(t Tip) bool { return t.Category == c })
}

// TipsBySkinType keeps tips meant for every skin or for skinType.
func (s *Service) TipsBySkinType(skinType string) []Tip {
	return filter(s.tips, func(t Tip) bool { return suits(t.SkinType, skinType) })
}

func (s *Service) Routines() []Routine {
	return slices.Clone(s.routines)
}

func (s *Service) RoutineByID(id int) (Routine, error) {
	for _, r := range s.routines {
		if r.ID == id {
			return r, nil
		}
	}
	return Routine{}, fmt.Errorf("%w: %d", ErrRoutineNotFound, id)
}

func (s *Service) RoutinesBySkinType(skinType string) []Routine {
	return filter(s.routines, func(r Routine) bool { return suits(r.SkinType, skinType) })
}

func (s *Service) RoutinesByDifficulty(d Difficulty) []Routine {
	return filter(s.routines, func(r Routine) bool { return r.Difficulty == d })
}

// RecommendedProducts picks skincare products that mention a hydration
// keyword. When nothing qualifies the built-in recommendations are returned.
func (s *Service) RecommendedProducts(products []domain.Product) []domain.Product {
	out := filter(products, func(p domain.Product) bool {
		if domain.CategoryID(p.Category) != "skincare" {
			return false
		}
		name := strings.ToLower(p.Name)
		desc := strings.ToLower(p.Description)
		for _, kw := range hydrationKeywords {
			if strings.Contains(name, kw) || strings.Contains(desc, kw) {
				return true
			}
		}
		return false
	})
	if len(out) > 0 {
		return out
	}

	out = make([]domain.Product, 0, len(s.recommended))
	if s.products == nil {
		return out
	}
	for _, id := range s.recommended {
		if p, ok := s.products.FindProduct(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// PersonalizedTips returns tips related to the kind of skincare product,
// or the general tips when none apply.
func (s *Service) PersonalizedTips(p domain.Product) []Tip {
	var topic string
	if domain.CategoryID(p.Category) == "skincare" {
		name := strings.ToLower(p.Name)
		switch {
		case strings.Contains(name, "moisturizer"), strings.Contains(name, "cream"):
			topic = "moisturizer"
		case strings.Contains(name, "serum"):
			topic = "serum"
		case strings.Contains(name, "cleanser"), strings.Contains(name, "limpiador"):
			topic = "cleanser"
		}
	}

	var out []Tip
	if topic != "" {
		out = filter(s.tips, func(t Tip) bool { return slices.Contains(t.Topics, topic) })
	}
	if len(out) == 0 {
		out = s.TipsByCategory(General)
	}
	return out
}

func (s *Service) Stats() Stats {
	return Stats{
		TotalTips:     len(s.tips),
		TotalRoutines: len(s.routines),
		Categories:    []Category{Morning, Evening, General},
	}
}

func suits(skinTypes []string, skinType string) bool {
	want := strings.ToLower(strings.TrimSpace(skinType))
	for _, st := range skinTypes {
		if st == anySkin || st == want {
			return true
		}
	}
	return false
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
