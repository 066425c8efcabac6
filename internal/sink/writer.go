// Package sink publishes an induced vocabulary to its consumers: TSV text,
// Redis hashes for online tokenization services, and PostgreSQL for run
// history.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tokenforge/subword-induction-platform/internal/vocab"
)

// nullForm is printed for an entry whose surface form cannot be resolved.
// Defensive fallback for the output format only.
const nullForm = "[NULL]"

// WriteTSV writes one "form<TAB>freq" line per entry, in store order.
func WriteTSV(w io.Writer, store *vocab.Store) error {
	bw := bufio.NewWriter(w)
	for _, e := range store.Entries() {
		form := e.Form
		if form == "" {
			form = nullForm
		}
		if _, err := fmt.Fprintf(bw, "%s\t%d\n", form, e.Freq); err != nil {
			return fmt.Errorf("writing vocabulary line: %w", err)
		}
	}
	return bw.Flush()
}

// WriteTSVFile atomically writes the vocabulary to path via a temp file.
func WriteTSVFile(path string, store *vocab.Store) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating vocabulary file: %w", err)
	}
	if err := WriteTSV(f, store); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing vocabulary file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming vocabulary file: %w", err)
	}
	return nil
}
