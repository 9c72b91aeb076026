package services

import (
	"context"
	"fmt"

	"github.com/veridoc-labs/veridoc/internal/core/domain"
	"github.com/veridoc-labs/veridoc/internal/core/ports/driven"
)

// lifecycle enforces the document status machine. All status writes in
// the service layer go through it so an illegal transition can never
// reach the store.
type lifecycle struct {
	docStore driven.DocumentStore
}

// transition moves doc to next, persisting the change. Returns
// domain.ErrLifecycleConflict (wrapped) when the machine does not
// permit the move. On success doc.Status is updated in place.
func (l *lifecycle) transition(ctx context.Context, doc *domain.Document, next domain.Status) error {
	if !doc.Status.CanTransition(next) {
		return fmt.Errorf("%w: document %s is %s, cannot become %s",
			domain.ErrLifecycleConflict, doc.ID, doc.Status, next)
	}
	if err := l.docStore.UpdateStatus(ctx, doc.ID, next); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	doc.Status = next
	return nil
}
