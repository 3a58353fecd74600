package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"library-api/internals/models"
	"library-api/internals/storage"
)

const recommendationLimit = 5

// handleSearch matches the title substring case-insensitively. Results pass
// through a small LRU keyed by the catalog generation, so a mutated catalog
// is never served stale.
func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")

	key := fmt.Sprintf("%d:%s", a.store.Generation(), strings.ToLower(title))
	var books []models.Book
	if cached, ok := a.searchCache.Get(key); ok {
		books = cached.([]models.Book)
	} else {
		var err error
		books, err = a.store.SearchBooks(r.Context(), title)
		if err != nil {
			a.log.Error("book search failed", "err", err)
			http.Error(w, "Server error", http.StatusInternalServerError)
			return
		}
		a.searchCache.Add(key, books)
	}

	if len(books) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// handleBookDetails joins the exact-title book with every review sharing the
// title. The join is by string match; reviews have no foreign key.
func (a *API) handleBookDetails(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")

	book, err := a.store.GetBookByTitle(r.Context(), title)
	if storage.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		return
	}
	if err != nil {
		a.log.Error("book lookup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}

	reviews, err := a.store.ReviewsByTitle(r.Context(), title)
	if err != nil {
		a.log.Error("review lookup failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error"})
		return
	}

	type bookDetails struct {
		models.Book
		Reviews []models.Review `json:"reviews"`
	}
	writeJSON(w, http.StatusOK, bookDetails{Book: *book, Reviews: reviews})
}

// handleNewArrivals returns the five most recently added books.
func (a *API) handleNewArrivals(w http.ResponseWriter, r *http.Request) {
	books, err := a.store.NewArrivals(r.Context(), 5)
	if err != nil {
		a.log.Error("new arrivals failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, books)
}

// handleRecommendations fans out over the issued titles and unions similar
// books, capped at five.
func (a *API) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BooksIssued []struct {
			Title string `json:"title"`
		} `json:"booksIssued"`
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	titles := make([]string, 0, len(req.BooksIssued))
	for _, b := range req.BooksIssued {
		titles = append(titles, b.Title)
	}

	recs, err := a.store.Recommendations(r.Context(), titles, recommendationLimit)
	if err != nil {
		a.log.Error("recommendations failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
