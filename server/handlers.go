package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"listings-service/models"
	"listings-service/services"
	"listings-service/storage"
)

const (
	defaultPageLimit  = 50
	maxPageLimit      = 100
	autocompleteLimit = 10
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
}

type helloResponse struct {
	Message string `json:"message"`
}

type locationResponse struct {
	LocationID   int64   `json:"location_id"`
	City         *string `json:"city"`
	Locality     *string `json:"locality"`
	CityDistrict *string `json:"city_district"`
	Street       *string `json:"street"`
	FullAddress  *string `json:"full_address"`
}

type listingResponse struct {
	ListingID    int64            `json:"listing_id"`
	Rooms        *int             `json:"rooms"`
	Area         *decimal.Decimal `json:"area"`
	PriceTotalZl *decimal.Decimal `json:"price_total_zl"`
	PriceSqmZl   *decimal.Decimal `json:"price_sqm_zl"`
	Location     locationResponse `json:"location"`
}

type filterResponse struct {
	Count    int               `json:"count"`
	Listings []listingResponse `json:"listings"`
}

type autocompleteItem struct {
	LocationID   int64   `json:"location_id"`
	City         *string `json:"city"`
	CityDistrict *string `json:"city_district"`
	Locality     *string `json:"locality"`
	DisplayName  string  `json:"display_name"`
}

type autocompleteResponse struct {
	Locations []autocompleteItem `json:"locations"`
}

type offerResponse struct {
	ListingID    int64            `json:"listing_id"`
	PriceTotalZl *decimal.Decimal `json:"price_total_zl"`
	PriceSqmZl   *decimal.Decimal `json:"price_sqm_zl"`
	Area         *decimal.Decimal `json:"area"`
	Rooms        *int             `json:"rooms"`
	DatePosted   *string          `json:"date_posted"`
}

type offersResponse struct {
	Offers []offerResponse `json:"offers"`
	Total  int             `json:"total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Listings Service API",
		"version": "1.0.0",
		"health":  "/health",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Timestamp: time.Now().UTC(), Database: "connected"}
	if err := s.store.Ping(r.Context()); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "error: " + err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	message := "Hello World"
	if name := mux.Vars(r)["name"]; name != "" {
		message = "Hello " + name
	}
	s.writeJSON(w, http.StatusOK, helloResponse{Message: message})
}

func (s *Server) handleFilterListings(w http.ResponseWriter, r *http.Request) {
	params, err := parseFilterParams(r)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	total, listings, err := s.store.FilterListings(r.Context(), params)
	if err != nil {
		s.serverError(w, "filter listings", err)
		return
	}

	resp := filterResponse{Count: total, Listings: make([]listingResponse, 0, len(listings))}
	for _, l := range listings {
		item := listingResponse{
			ListingID:    l.ID,
			Rooms:        l.Rooms,
			Area:         l.Area,
			PriceTotalZl: l.PriceTotalZl,
			PriceSqmZl:   l.PriceSqmZl,
		}
		if l.Location != nil {
			item.Location = locationResponse{
				LocationID:   l.Location.ID,
				City:         l.Location.City,
				Locality:     l.Location.Locality,
				CityDistrict: l.Location.CityDistrict,
				Street:       l.Location.Street,
				FullAddress:  l.Location.FullAddress,
			}
		}
		resp.Listings = append(resp.Listings, item)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}

	locations, err := s.store.SearchLocations(r.Context(), q, autocompleteLimit)
	if err != nil {
		s.serverError(w, "autocomplete", err)
		return
	}

	resp := autocompleteResponse{Locations: make([]autocompleteItem, 0, len(locations))}
	seen := make(map[string]struct{})
	for _, loc := range locations {
		name := displayName(loc)
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		resp.Locations = append(resp.Locations, autocompleteItem{
			LocationID:   loc.ID,
			City:         loc.City,
			CityDistrict: loc.CityDistrict,
			Locality:     loc.Locality,
			DisplayName:  name,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOffers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sortBy := query.Get("sort_by")
	order := query.Get("order")
	if order == "" {
		order = "asc"
	}

	option := services.SortDefault
	if sortBy != "" && sortBy != string(services.SortDefault) {
		var err error
		option, err = services.ConvertSortParams(sortBy, order)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}

	offers, err := s.store.FetchOffers(r.Context())
	if err != nil {
		s.serverError(w, "fetch offers", err)
		return
	}
	sorted, err := s.sorter.Sort(offers, option)
	if err != nil {
		s.serverError(w, "sort offers", err)
		return
	}

	resp := offersResponse{Offers: make([]offerResponse, 0, len(sorted)), Total: len(sorted)}
	for _, l := range sorted {
		var datePosted *string
		if l.DatePosted != nil {
			d := l.DatePosted.Format("2006-01-02")
			datePosted = &d
		}
		resp.Offers = append(resp.Offers, offerResponse{
			ListingID:    l.ID,
			PriceTotalZl: l.PriceTotalZl,
			PriceSqmZl:   l.PriceSqmZl,
			Area:         l.Area,
			Rooms:        l.Rooms,
			DatePosted:   datePosted,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func parseFilterParams(r *http.Request) (storage.FilterParams, error) {
	query := r.URL.Query()
	params := storage.FilterParams{Limit: defaultPageLimit}

	decimals := map[string]**decimal.Decimal{
		"price_min":     &params.PriceMin,
		"price_max":     &params.PriceMax,
		"price_sqm_min": &params.PriceSqmMin,
		"price_sqm_max": &params.PriceSqmMax,
	}
	for name, dst := range decimals {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return params, fmt.Errorf("invalid %s %q", name, raw)
		}
		*dst = &d
	}

	for _, raw := range query["rooms"] {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			return params, fmt.Errorf("invalid rooms %q", raw)
		}
		params.Rooms = append(params.Rooms, n)
	}

	for _, f := range []struct {
		name string
		dst  **string
	}{
		{"city", &params.City},
		{"city_district", &params.CityDistrict},
	} {
		if raw := strings.TrimSpace(query.Get(f.name)); raw != "" {
			v := raw
			*f.dst = &v
		}
	}

	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			return params, fmt.Errorf("invalid limit %q (want 1-%d)", raw, maxPageLimit)
		}
		params.Limit = n
	}
	if raw := query.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return params, fmt.Errorf("invalid offset %q", raw)
		}
		params.Offset = n
	}
	return params, nil
}

func displayName(loc *models.Location) string {
	var parts []string
	for _, p := range []*string{loc.City, loc.CityDistrict, loc.Locality} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	if len(parts) == 0 {
		return "Unknown location"
	}
	return strings.Join(parts, ", ")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Errorf("[server] encode response: %v", err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	s.logger.Errorf("[server] %s: %v", op, err)
	s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}
