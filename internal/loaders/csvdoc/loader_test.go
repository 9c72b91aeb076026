package csvdoc

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
)

func TestLoad(t *testing.T) {
	l := New()

	t.Run("rows become blocks", func(t *testing.T) {
		input := "name,amount,currency\nAcme Ltd,428.50,EUR\nGlobex,99,USD\n"
		pages, err := l.Load(context.Background(), strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pages) != 1 {
			t.Fatalf("expected 1 page, got %d", len(pages))
		}
		if len(pages[0].Blocks) != 2 {
			t.Fatalf("expected 2 blocks, got %d", len(pages[0].Blocks))
		}
		if pages[0].Blocks[0].Text != "name: Acme Ltd, amount: 428.50, currency: EUR" {
			t.Errorf("unexpected row rendering: %q", pages[0].Blocks[0].Text)
		}
	})

	t.Run("ragged rows keep bare values", func(t *testing.T) {
		input := "a,b\n1,2,3\n"
		pages, err := l.Load(context.Background(), strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pages[0].Blocks[0].Text != "a: 1, b: 2, 3" {
			t.Errorf("unexpected row rendering: %q", pages[0].Blocks[0].Text)
		}
	})

	t.Run("header only", func(t *testing.T) {
		pages, err := l.Load(context.Background(), strings.NewReader("a,b,c\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if pages != nil {
			t.Errorf("expected no pages, got %d", len(pages))
		}
	})

	t.Run("malformed quoting", func(t *testing.T) {
		_, err := l.Load(context.Background(), strings.NewReader("a,b\n\"unterminated,1\n"))
		if !errors.Is(err, domain.ErrCorruptInput) {
			t.Errorf("expected corrupt input error, got %v", err)
		}
	})
}
