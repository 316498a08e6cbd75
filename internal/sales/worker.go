package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-salon/internal/obs"
	"github.com/noah-isme/backend-salon/internal/tasks"
)

// ReceiptWorker handles receipt:render tasks.
type ReceiptWorker struct {
	Svc     *Service
	Archive Archiver
	Logger  *zerolog.Logger
}

// ProcessTask implements asynq.Handler. Without an archiver the receipt is
// rendered only to confirm the sale is printable.
func (w ReceiptWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseReceipt(t)
	if err != nil {
		return err
	}
	d, pdf, err := w.Svc.Receipt(ctx, p.SaleID)
	if err != nil {
		obs.IncCounter(obs.ReceiptsRenderedTotal, "error")
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	location := ""
	if w.Archive != nil {
		if location, err = w.Archive.Put(ctx, d.InvoiceNumber+".pdf", pdf); err != nil {
			obs.IncCounter(obs.ReceiptsRenderedTotal, "archive_error")
			return err
		}
	}
	obs.IncCounter(obs.ReceiptsRenderedTotal, "ok")
	if w.Logger != nil {
		w.Logger.Info().Str("invoice", d.InvoiceNumber).Int("bytes", len(pdf)).Str("location", location).Msg("receipt rendered")
	}
	return nil
}
