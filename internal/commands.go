package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/namohub/internal/apperr"
	"github.com/starford/namohub/internal/decode"
	"github.com/starford/namohub/internal/mcpserver"
)

// ServeMCP runs the MCP tool server on stdin/stdout. Logs go to stderr
// because stdout carries the protocol.
func ServeMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	c, err := app.open()
	if err != nil {
		return err
	}
	defer c.Close()

	app.logger.Info("MCP server starting", slog.String("store_path", c.store.Path()))
	return mcpserver.New(c.svc).ServeStdio()
}

// ClassifyText writes the classification of text as JSON.
func ClassifyText(_ context.Context, text string, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	classifier, err := app.config.Classifier.Classifier()
	if err != nil {
		return err
	}
	return writeIndented(app, classifier.Classify(text))
}

// ImportFile replaces the collection with the records in path and writes
// the import outcome as JSON. The outcome is written even when the import
// is rejected.
func ImportFile(ctx context.Context, path string, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}

	c, err := app.open()
	if err != nil {
		return err
	}
	defer c.Close()

	out, err := c.svc.Import(ctx, data, decode.FormatFromName(path), "")
	if err != nil && !errors.Is(err, apperr.ErrImportRejected) {
		return err
	}
	if werr := writeIndented(app, out); werr != nil {
		return werr
	}
	if err != nil {
		return fmt.Errorf("%w: %d errors", err, len(out.Errors))
	}
	app.logger.Info("import complete",
		slog.Int("items", len(out.Normalized)),
		slog.Int("warnings", len(out.Warnings)))
	return nil
}

// Export writes the collection as an indented JSON array. An empty
// collection is apperr.ErrEmpty.
func Export(ctx context.Context, opts ...Option) error {
	app, err := newApplication(os.Stderr, opts...)
	if err != nil {
		return err
	}
	c, err := app.open()
	if err != nil {
		return err
	}
	defer c.Close()

	items, _, err := c.svc.Export(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrEmpty) {
			return fmt.Errorf("export aborted: %w", err)
		}
		return err
	}
	return writeIndented(app, items)
}

func writeIndented(app *application, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = app.out.Write(data)
	return err
}
