// Command import-books seeds the catalog from a JSON file holding an array
// of book records, matching the shape the API serves.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"library-api/internals/models"
	"library-api/internals/storage"
)

func main() {
	var dbPath, filePath string

	root := &cobra.Command{
		Use:   "import-books",
		Short: "Import a JSON book catalog into the library database",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("read catalog file: %w", err)
			}

			var books []models.Book
			if err := json.Unmarshal(data, &books); err != nil {
				return fmt.Errorf("parse catalog file: %w", err)
			}

			store, err := storage.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer store.Close()

			ctx := context.Background()
			imported := 0
			for _, b := range books {
				if err := store.CreateBook(ctx, b); err != nil {
					fmt.Fprintf(os.Stderr, "skipping %q: %v\n", b.Title, err)
					continue
				}
				imported++
			}

			fmt.Printf("Imported %d of %d books into %s\n", imported, len(books), dbPath)
			return nil
		},
	}

	root.Flags().StringVar(&dbPath, "db", "library.db", "path to the SQLite database")
	root.Flags().StringVar(&filePath, "file", "books.json", "path to the JSON catalog")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
