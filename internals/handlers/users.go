package handlers

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"
	"net/url"

	"library-api/internals/mailer"
	"library-api/internals/models"
	"library-api/internals/storage"
)

// handleSendOtp validates the institutional email, stores a fresh code and
// dispatches it. Delivery is best-effort; the response only reflects the
// stored record.
func (a *API) handleSendOtp(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	email := f["email"]

	if !a.emailRe.MatchString(email) {
		http.Error(w, "Email ID type not valid. Please use an institutional email ID to register.", http.StatusBadRequest)
		return
	}

	if _, err := a.store.GetUserByEmail(r.Context(), email); err == nil {
		http.Error(w, "Email already taken", http.StatusBadRequest)
		return
	} else if !storage.IsNotFound(err) {
		a.log.Error("otp user lookup failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	code, err := newOtpCode()
	if err != nil {
		a.log.Error("otp generation failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	if err := a.store.UpsertOtp(r.Context(), email, code, a.now().Add(a.otpTTL)); err != nil {
		a.log.Error("otp store failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	a.mail.Enqueue(mailer.OtpMessage(email, code))
	writeText(w, http.StatusOK, "OTP sent successfully")
}

// newOtpCode returns a 6-digit numeric code in [100000, 999999].
func newOtpCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return (n.Add(n, big.NewInt(100000))).String(), nil
}

// handleVerifyOtp redeems a code exactly once and creates the user.
func (a *API) handleVerifyOtp(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	rec, err := a.store.LookupOtp(r.Context(), f["email"], f["otp"])
	if storage.IsNotFound(err) || (err == nil && a.now().After(rec.ExpiresAt)) {
		http.Error(w, "Invalid or expired OTP", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.log.Error("otp lookup failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	if err := a.store.DeleteOtp(r.Context(), rec.Email, rec.Code); err != nil {
		a.log.Error("otp delete failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	err = a.store.CreateUser(r.Context(), models.User{
		Username:        f["username"],
		Email:           f["email"],
		Password:        f["password"],
		FavouriteBook:   f["favourite_book"],
		FavouriteAuthor: f["favourite_author"],
	})
	if storage.IsDuplicate(err) {
		http.Error(w, "Username already taken", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.log.Error("user create failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	writeText(w, http.StatusOK, "Registration successful. You can now login.")
}

// handleRegister creates a user directly, replacing any record that already
// holds the email. The OTP flow is the normal path; this one backs the
// legacy registration form.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := a.store.DeleteUserByEmail(r.Context(), f["email"]); err != nil {
		a.log.Error("user delete failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	err = a.store.CreateUser(r.Context(), models.User{
		Username:        f["username"],
		Email:           f["email"],
		Password:        f["password"],
		FavouriteBook:   f["favourite_book"],
		FavouriteAuthor: f["favourite_author"],
	})
	if storage.IsDuplicate(err) {
		http.Error(w, "Username already taken", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.log.Error("user create failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	writeText(w, http.StatusOK, "Registration successful. You can now login.")
}

// handleLogin performs the plaintext-equality credential check. A miss is a
// regular response, not an error status, matching the product behaviour.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	f, err := parseBody(r)
	if err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	user, err := a.store.GetUserByCredentials(r.Context(), f["email"], f["password"])
	if storage.IsNotFound(err) {
		writeText(w, http.StatusOK, "Invalid credentials. Please try again.")
		return
	}
	if err != nil {
		a.log.Error("login lookup failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	issued, err := json.Marshal(user.BooksIssued)
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	q := url.Values{}
	q.Set("username", user.Username)
	q.Set("email", user.Email)
	q.Set("fav_author", user.FavouriteAuthor)
	q.Set("fav_book", user.FavouriteBook)
	q.Set("books_issued", string(issued))
	http.Redirect(w, r, "/profile.html?"+q.Encode(), http.StatusFound)
}

// handleProfile returns the full user record for the email.
func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	user, err := a.store.GetUserByEmail(r.Context(), email)
	if storage.IsNotFound(err) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		a.log.Error("profile lookup failed", "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
