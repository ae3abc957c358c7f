package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/shopclassy/internal/catalog"
	"github.com/fjod/shopclassy/internal/domain"
	"github.com/fjod/shopclassy/internal/hydration"
)

type HydrationHandler struct {
	content  *hydration.Service
	products catalog.Source
}

func NewHydrationHandler(content *hydration.Service, products catalog.Source) *HydrationHandler {
	return &HydrationHandler{
		content:  content,
		products: products,
	}
}

type TipsResponse struct {
	Tips []hydration.Tip `json:"tips"`
}

type RoutinesResponse struct {
	Routines []hydration.Routine `json:"routines"`
}

type RecommendationsResponse struct {
	Products []domain.Product `json:"products"`
}

// Tips filters by category and skin type when given; both filters combine.
func (h *HydrationHandler) Tips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tips := h.content.Tips()
	if c := strings.ToLower(strings.TrimSpace(q.Get("category"))); c != "" {
		category := hydration.Category(c)
		switch category {
		case hydration.Morning, hydration.Evening, hydration.General:
		default:
			respondError(w, r, http.StatusBadRequest, "invalid_category", "category must be morning, evening or general")
			return
		}
		tips = intersectTips(tips, h.content.TipsByCategory(category))
	}
	if st := q.Get("skin_type"); st != "" {
		tips = intersectTips(tips, h.content.TipsBySkinType(st))
	}

	respondJSON(w, r, http.StatusOK, TipsResponse{Tips: tips})
}

func (h *HydrationHandler) Routines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	routines := h.content.Routines()
	if d := strings.ToLower(strings.TrimSpace(q.Get("difficulty"))); d != "" {
		difficulty := hydration.Difficulty(d)
		switch difficulty {
		case hydration.Beginner, hydration.Intermediate, hydration.Advanced:
		default:
			respondError(w, r, http.StatusBadRequest, "invalid_difficulty", "difficulty must be beginner, intermediate or advanced")
			return
		}
		routines = intersectRoutines(routines, h.content.RoutinesByDifficulty(difficulty))
	}
	if st := q.Get("skin_type"); st != "" {
		routines = intersectRoutines(routines, h.content.RoutinesBySkinType(st))
	}

	respondJSON(w, r, http.StatusOK, RoutinesResponse{Routines: routines})
}

func (h *HydrationHandler) Routine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, "invalid_routine_id", "id must be a positive integer")
		return
	}

	routine, err := h.content.RoutineByID(id)
	if errors.Is(err, hydration.ErrRoutineNotFound) {
		respondError(w, r, http.StatusNotFound, "routine_not_found", "routine not found")
		return
	}
	respondJSON(w, r, http.StatusOK, routine)
}

func (h *HydrationHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	products := h.content.RecommendedProducts(h.products.ListProducts())
	respondJSON(w, r, http.StatusOK, RecommendationsResponse{Products: products})
}

func (h *HydrationHandler) ProductTips(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDParam(w, r, "id")
	if !ok {
		return
	}

	p, found := h.products.FindProduct(id)
	if !found {
		respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
		return
	}
	respondJSON(w, r, http.StatusOK, TipsResponse{Tips: h.content.PersonalizedTips(p)})
}

func (h *HydrationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, h.content.Stats())
}

func intersectTips(a, b []hydration.Tip) []hydration.Tip {
	keep := make(map[int]bool, len(b))
	for _, t := range b {
		keep[t.ID] = true
	}
	out := make([]hydration.Tip, 0, len(a))
	for _, t := range a {
		if keep[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func intersectRoutines(a, b []hydration.Routine) []hydration.Routine {
	keep := make(map[int]bool, len(b))
	for _, r := range b {
		keep[r.ID] = true
	}
	out := make([]hydration.Routine, 0, len(a))
	for _, r := range a {
		if keep[r.ID] {
			out = append(out, r)
		}
	}
	return out
}
