package snapshot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethanbaker/controlfill/internal/controls"
)

// Sink stores a full serialized dataset, replacing any previous snapshot
type Sink interface {
	Save(ctx context.Context, data []byte) error
}

// MultiSink saves to every sink in order and stops at the first failure
type MultiSink []Sink

// Save implements Sink
func (m MultiSink) Save(ctx context.Context, data []byte) error {
	for _, sink := range m {
		if err := sink.Save(ctx, data); err != nil {
			return err
		}
	}
	return nil
}

// Writer persists a dataset to a sink
type Writer struct {
	Dataset *controls.Dataset
	Sink    Sink
}

// Persist encodes the whole dataset and hands it to the sink
func (w *Writer) Persist(ctx context.Context) error {
	var buf bytes.Buffer
	if err := w.Dataset.Encode(&buf); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := w.Sink.Save(ctx, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	return nil
}
