package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent click events.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openClickStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show clicks")
	}
	if closeStore != nil {
		defer closeStore()
	}

	events, err := store.ListRecent(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "no click events found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tOffer\tNetwork\tCountry\tFingerprint\tDest")

	for _, e := range events {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Time.UTC().Format(time.RFC3339),
			e.OfferID,
			e.Network,
			e.Country,
			e.Fingerprint,
			sanitizeInline(e.Dest),
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	v = strings.ReplaceAll(v, "\t", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	if len(v) > 80 {
		return v[:77] + "..."
	}
	return v
}
