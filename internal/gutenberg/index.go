package gutenberg

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

// Indexer populates the metadata index from downloaded book texts.
type Indexer struct {
	texts *TextStore
	meta  *MetadataStore
	log   *slog.Logger
}

// NewIndexer builds an indexer. A nil logger discards progress output.
func NewIndexer(texts *TextStore, meta *MetadataStore, log *slog.Logger) *Indexer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Indexer{texts: texts, meta: meta, log: log}
}

// Index downloads each book, parses its header, and upserts a catalog
// entry. It stops at the first failure and reports how many books were
// indexed before it.
func (ix *Indexer) Index(ctx context.Context, bookIDs []int) (int, error) {
	for i, id := range bookIDs {
		book, err := ix.indexOne(ctx, id)
		if err != nil {
			return i, fmt.Errorf("indexing book %d: %w", id, err)
		}
		ix.log.Info("book indexed", "book_id", id, "title", book.Title, "authors", book.Authors)
	}
	return len(bookIDs), nil
}

func (ix *Indexer) indexOne(ctx context.Context, id int) (Book, error) {
	text, err := ix.texts.Text(ctx, id)
	if err != nil {
		return Book{}, err
	}

	header := HeaderLines(string(text))
	book := Book{
		ID:       id,
		Title:    firstOr(MetadataFromHeader("title", header), "Book "+strconv.Itoa(id)),
		Language: firstOr(MetadataFromHeader("language", header), "en"),
		Authors:  MetadataFromHeader("author", header),
		Subjects: MetadataFromHeader("subject", header),
	}

	if err := ix.meta.UpsertBook(ctx, book); err != nil {
		return Book{}, err
	}
	return book, nil
}

func firstOr(values []string, fallback string) string {
	if len(values) > 0 {
		return values[0]
	}
	return fallback
}
