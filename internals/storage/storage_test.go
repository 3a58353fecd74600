package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"library-api/internals/models"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func addBook(t *testing.T, s *Store, b models.Book) {
	t.Helper()
	if err := s.CreateBook(context.Background(), b); err != nil {
		t.Fatalf("create book %q: %v", b.Title, err)
	}
}

func addUser(t *testing.T, s *Store, username, email, password string) {
	t.Helper()
	err := s.CreateUser(context.Background(), models.User{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		t.Fatalf("create user %q: %v", email, err)
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "pw")

	err := s.CreateUser(ctx, models.User{Username: "alice", Email: "other@iitdh.ac.in", Password: "pw"})
	if !IsDuplicate(err) {
		t.Fatalf("duplicate username: want ErrDuplicate, got %v", err)
	}

	err = s.CreateUser(ctx, models.User{Username: "alice2", Email: "alice@iitdh.ac.in", Password: "pw"})
	if !IsDuplicate(err) {
		t.Fatalf("duplicate email: want ErrDuplicate, got %v", err)
	}
}

func TestGetUserByCredentials(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "secret")

	u, err := s.GetUserByCredentials(ctx, "alice@iitdh.ac.in", "secret")
	if err != nil {
		t.Fatalf("valid credentials: %v", err)
	}
	if u.Username != "alice" {
		t.Fatalf("want alice, got %q", u.Username)
	}
	if u.BooksIssued == nil || len(u.BooksIssued) != 0 {
		t.Fatalf("fresh user should have empty issued list, got %v", u.BooksIssued)
	}

	if _, err := s.GetUserByCredentials(ctx, "alice@iitdh.ac.in", "wrong"); !IsNotFound(err) {
		t.Fatalf("wrong password: want ErrNotFound, got %v", err)
	}
}

func TestOtpLifecycle(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	exp := time.Now().Add(5 * time.Minute)

	if err := s.UpsertOtp(ctx, "a@iitdh.ac.in", "111111", exp); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// A new request supersedes the old code.
	if err := s.UpsertOtp(ctx, "a@iitdh.ac.in", "222222", exp); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	if _, err := s.LookupOtp(ctx, "a@iitdh.ac.in", "111111"); !IsNotFound(err) {
		t.Fatalf("old code should be gone, got %v", err)
	}
	rec, err := s.LookupOtp(ctx, "a@iitdh.ac.in", "222222")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if rec.Code != "222222" {
		t.Fatalf("want code 222222, got %q", rec.Code)
	}

	if err := s.DeleteOtp(ctx, "a@iitdh.ac.in", "222222"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.LookupOtp(ctx, "a@iitdh.ac.in", "222222"); !IsNotFound(err) {
		t.Fatalf("deleted code should not resolve, got %v", err)
	}
}

func TestCheckoutAndReturn(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "pw")
	addBook(t, s, models.Book{Title: "Dune", Author: "Frank Herbert", Count: 1})

	issue := time.Now()
	due := issue.Add(24 * time.Hour)

	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Dune", issue, due); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	b, err := s.GetBookByTitle(ctx, "Dune")
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if b.Count != 0 {
		t.Fatalf("count after checkout: want 0, got %d", b.Count)
	}

	u, err := s.GetUserByEmail(ctx, "alice@iitdh.ac.in")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if len(u.BooksIssued) != 1 || u.BooksIssued[0].Title != "Dune" {
		t.Fatalf("issued list: %v", u.BooksIssued)
	}

	// Second checkout of the last copy fails and changes nothing.
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Dune", issue, due); !IsNotFound(err) {
		t.Fatalf("out of stock: want ErrNotFound, got %v", err)
	}
	b, _ = s.GetBookByTitle(ctx, "Dune")
	if b.Count != 0 {
		t.Fatalf("failed checkout must not touch count, got %d", b.Count)
	}
	u, _ = s.GetUserByEmail(ctx, "alice@iitdh.ac.in")
	if len(u.BooksIssued) != 1 {
		t.Fatalf("failed checkout must not touch issued list, got %v", u.BooksIssued)
	}

	if err := s.ReturnBook(ctx, "alice@iitdh.ac.in", "Dune"); err != nil {
		t.Fatalf("return: %v", err)
	}
	b, _ = s.GetBookByTitle(ctx, "Dune")
	if b.Count != 1 {
		t.Fatalf("count after return: want 1, got %d", b.Count)
	}
	u, _ = s.GetUserByEmail(ctx, "alice@iitdh.ac.in")
	if len(u.BooksIssued) != 0 {
		t.Fatalf("issued list after return: %v", u.BooksIssued)
	}
}

func TestCheckoutMissingUserOrBook(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "pw")

	now := time.Now()
	if err := s.CheckoutBook(ctx, "ghost@iitdh.ac.in", "Dune", now, now); !IsNotFound(err) {
		t.Fatalf("missing user: want ErrNotFound, got %v", err)
	}
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Nope", now, now); !IsNotFound(err) {
		t.Fatalf("missing book: want ErrNotFound, got %v", err)
	}
}

func TestReturnRemovesAllEntriesButIncrementsOnce(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "pw")
	addBook(t, s, models.Book{Title: "Dune", Count: 3})

	now := time.Now()
	due := now.Add(24 * time.Hour)
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Dune", now, due); err != nil {
		t.Fatalf("checkout 1: %v", err)
	}
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Dune", now, due); err != nil {
		t.Fatalf("checkout 2: %v", err)
	}

	if err := s.ReturnBook(ctx, "alice@iitdh.ac.in", "Dune"); err != nil {
		t.Fatalf("return: %v", err)
	}

	u, _ := s.GetUserByEmail(ctx, "alice@iitdh.ac.in")
	if len(u.BooksIssued) != 0 {
		t.Fatalf("return should clear every matching entry, got %v", u.BooksIssued)
	}
	b, _ := s.GetBookByTitle(ctx, "Dune")
	if b.Count != 2 {
		t.Fatalf("return restores exactly one copy: want 2, got %d", b.Count)
	}
}

func TestSearchBooksCaseInsensitive(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addBook(t, s, models.Book{Title: "The Lord of the Rings", Count: 1})
	addBook(t, s, models.Book{Title: "Lord Jim", Count: 1})
	addBook(t, s, models.Book{Title: "Dune", Count: 1})

	books, err := s.SearchBooks(ctx, "lord")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(books) != 2 {
		t.Fatalf("want 2 matches, got %d", len(books))
	}

	books, err = s.SearchBooks(ctx, "zzz")
	if err != nil {
		t.Fatalf("search miss: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("want empty slice for a miss, got %v", books)
	}
}

func TestNewArrivals(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	titles := []string{"One", "Two", "Three", "Four", "Five", "Six", "Seven"}
	for _, title := range titles {
		addBook(t, s, models.Book{Title: title, Count: 1})
	}

	books, err := s.NewArrivals(ctx, 5)
	if err != nil {
		t.Fatalf("new arrivals: %v", err)
	}
	if len(books) != 5 {
		t.Fatalf("want 5, got %d", len(books))
	}
	if books[0].Title != "Seven" || books[4].Title != "Three" {
		t.Fatalf("want newest first, got %q .. %q", books[0].Title, books[4].Title)
	}
}

func TestRecommendations(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addBook(t, s, models.Book{Title: "Dune", Author: "Frank Herbert", Genre: "SciFi", Department: "CS", Count: 1})
	addBook(t, s, models.Book{Title: "Dune Messiah", Author: "Frank Herbert", Genre: "SciFi", Department: "EE", Count: 1})
	addBook(t, s, models.Book{Title: "Hyperion", Author: "Dan Simmons", Genre: "SciFi", Department: "ME", Count: 1})
	addBook(t, s, models.Book{Title: "Emma", Author: "Jane Austen", Genre: "Romance", Department: "HSS", Count: 1})

	recs, err := s.Recommendations(ctx, []string{"Dune"}, 5)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("want at least one recommendation")
	}
	got := map[string]bool{}
	for _, r := range recs {
		if r.Title == "Dune" {
			t.Fatal("issued title must not be recommended")
		}
		got[r.Title] = true
	}
	if !got["Dune Messiah"] || !got["Hyperion"] {
		t.Fatalf("want same-author and same-genre matches, got %v", got)
	}
	if got["Emma"] {
		t.Fatal("unrelated book must not be recommended")
	}

	// No issued books means no recommendations, not an error.
	recs, err = s.Recommendations(ctx, nil, 5)
	if err != nil {
		t.Fatalf("empty input: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("want empty result, got %v", recs)
	}
}

func TestRecommendationsCap(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addBook(t, s, models.Book{Title: "Seed", Genre: "SciFi", Count: 1})
	for _, title := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		addBook(t, s, models.Book{Title: title, Genre: "SciFi", Count: 1})
	}

	recs, err := s.Recommendations(ctx, []string{"Seed"}, 5)
	if err != nil {
		t.Fatalf("recommendations: %v", err)
	}
	if len(recs) != 5 {
		t.Fatalf("want cap of 5, got %d", len(recs))
	}
}

func TestCollectOverdue(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "pw")
	addBook(t, s, models.Book{Title: "Dune", Count: 2})
	addBook(t, s, models.Book{Title: "Emma", Count: 2})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Dune", base, base.Add(24*time.Hour)); err != nil {
		t.Fatalf("checkout overdue: %v", err)
	}
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Emma", base, base.Add(72*time.Hour)); err != nil {
		t.Fatalf("checkout current: %v", err)
	}

	loans, err := s.CollectOverdue(ctx, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(loans) != 1 || loans[0].Title != "Dune" || loans[0].Email != "alice@iitdh.ac.in" {
		t.Fatalf("want the Dune loan, got %v", loans)
	}

	b, _ := s.GetBookByTitle(ctx, "Dune")
	if b.Count != 2 {
		t.Fatalf("overdue book restored to stock: want 2, got %d", b.Count)
	}
	u, _ := s.GetUserByEmail(ctx, "alice@iitdh.ac.in")
	if len(u.BooksIssued) != 1 || u.BooksIssued[0].Title != "Emma" {
		t.Fatalf("only the overdue entry is removed, got %v", u.BooksIssued)
	}

	// A second sweep at the same instant finds nothing.
	loans, err = s.CollectOverdue(ctx, base.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("second collect: %v", err)
	}
	if len(loans) != 0 {
		t.Fatalf("second sweep must be empty, got %v", loans)
	}
}

func TestGenerationBumpsOnCatalogMutation(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()
	addUser(t, s, "alice", "alice@iitdh.ac.in", "pw")

	g0 := s.Generation()
	addBook(t, s, models.Book{Title: "Dune", Count: 1})
	g1 := s.Generation()
	if g1 == g0 {
		t.Fatal("create must bump generation")
	}

	now := time.Now()
	if err := s.CheckoutBook(ctx, "alice@iitdh.ac.in", "Dune", now, now.Add(time.Hour)); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if s.Generation() == g1 {
		t.Fatal("checkout must bump generation")
	}

	g2 := s.Generation()
	if err := s.ReturnBook(ctx, "alice@iitdh.ac.in", "Dune"); err != nil {
		t.Fatalf("return: %v", err)
	}
	if s.Generation() == g2 {
		t.Fatal("return must bump generation")
	}
}

func TestReviews(t *testing.T) {
	s := tempStore(t)
	ctx := context.Background()

	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, text := range []string{"great", "fine"} {
		err := s.CreateReview(ctx, models.Review{
			Email:      "alice@iitdh.ac.in",
			Title:      "Dune",
			Review:     text,
			Rating:     4 + i%2,
			ReviewDate: when,
		})
		if err != nil {
			t.Fatalf("create review: %v", err)
		}
	}

	reviews, err := s.ReviewsByTitle(ctx, "Dune")
	if err != nil {
		t.Fatalf("reviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("want 2 reviews, got %d", len(reviews))
	}
	if reviews[0].Review != "great" || reviews[1].Review != "fine" {
		t.Fatalf("want insertion order, got %v", reviews)
	}
}
