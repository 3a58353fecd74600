package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"library-api/internals/models"
	"library-api/internals/storage"
)

// handleAddToCart issues a book to a user. The stock decrement and the
// issued-list append happen in one transaction; a missing book and an
// out-of-stock book answer with the same 404.
func (a *API) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	email, title := f["email"], f["title"]

	user, err := a.store.GetUserByEmail(r.Context(), email)
	if storage.IsNotFound(err) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.log.Error("checkout user lookup failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	issueDate := a.now()
	err = a.store.CheckoutBook(r.Context(), email, title, issueDate, issueDate.Add(a.loanPeriod))
	if storage.IsNotFound(err) {
		http.Error(w, "Book not found or out of stock", http.StatusNotFound)
		return
	}
	if err != nil {
		a.log.Error("checkout failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	a.log.Info("book issued", "title", title, "user", user.Username, "due", issueDate.Add(a.loanPeriod))
	writeText(w, http.StatusOK, "Book added to cart and count updated successfully.")
}

// handleReturnBook removes the matching issued entries, restores one copy to
// stock and points the user at the review form.
func (a *API) handleReturnBook(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	email, title := f["email"], f["title"]

	err = a.store.ReturnBook(r.Context(), email, title)
	if storage.IsNotFound(err) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User or book not found."})
		return
	}
	if err != nil {
		a.log.Error("return failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error."})
		return
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("title", title)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":          "Book returned successfully. Would you like to write a review?",
		"redirectToReview": "/review.html?" + q.Encode(),
	})
}

// handleSubmitReview appends a review, timestamped at submission. No rating
// or ownership validation, matching the product behaviour.
func (a *API) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	rating, _ := strconv.Atoi(f["rating"])
	err = a.store.CreateReview(r.Context(), models.Review{
		Email:      f["email"],
		Title:      f["title"],
		Review:     f["review"],
		Rating:     rating,
		ReviewDate: a.now(),
	})
	if err != nil {
		a.log.Error("review create failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Server error."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Review submitted successfully."})
}
