package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typedrill/internal/config"
	"github.com/verte-zerg/typedrill/internal/importer"
	"github.com/verte-zerg/typedrill/internal/stats"
	"github.com/verte-zerg/typedrill/internal/store"
	"github.com/verte-zerg/typedrill/internal/wordlist"
)

var (
	docsAddTitle       string
	docsImportSheet    string
	docsImportNoHeader bool
)

func newDocsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage practice documents",
	}

	addCmd := &cobra.Command{
		Use:   "add <file>",
		Short: "Add a text file as a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runDocsAddCmd,
	}
	addCmd.Flags().StringVar(&docsAddTitle, "title", "", "document title (default: file name)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import documents from .txt, .md, .yaml, .csv or .xlsx",
		Args:  cobra.ExactArgs(1),
		RunE:  runDocsImportCmd,
	}
	importCmd.Flags().StringVar(&docsImportSheet, "sheet", "", "xlsx sheet name (default: first sheet)")
	importCmd.Flags().BoolVar(&docsImportNoHeader, "no-header", false, "treat the first csv/xlsx row as data")

	cmd.AddCommand(addCmd)
	cmd.AddCommand(importCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List documents, newest first",
		Args:  cobra.NoArgs,
		RunE:  runDocsListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runDocsRmCmd,
	})
	return cmd
}

func withStore(fn func(st *store.Store) error) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	return fn(st)
}

func runDocsAddCmd(cmd *cobra.Command, args []string) error {
	content, err := wordlist.LoadText(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	title := strings.TrimSpace(docsAddTitle)
	if title == "" {
		base := filepath.Base(args[0])
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return withStore(func(st *store.Store) error {
		doc, err := st.CreateDocument(context.Background(), title, content)
		if err != nil {
			return fmt.Errorf("failed to add document: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.ID)
		return err
	})
}

func runDocsImportCmd(cmd *cobra.Command, args []string) error {
	cfg := importer.DefaultConfig(args[0])
	cfg.SheetName = docsImportSheet
	cfg.SkipHeader = !docsImportNoHeader
	return withStore(func(st *store.Store) error {
		res, err := importer.Import(context.Background(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", args[0], err)
		}
		for _, e := range res.Errors {
			logErrln(e)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Processed %d, created %d, skipped %d\n",
			res.Processed, res.Created, res.Skipped)
		return err
	})
}

func runDocsListCmd(cmd *cobra.Command, _ []string) error {
	return withStore(func(st *store.Store) error {
		docs, err := st.ListDocuments(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list documents: %w", err)
		}
		if len(docs) == 0 {
			logErrln("No documents. Add one with: typedrill docs add <file>")
			return nil
		}
		rows := make([][]string, 0, len(docs))
		for _, d := range docs {
			rows = append(rows, []string{
				d.ID,
				d.CreatedAt.Local().Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", len(wordlist.Tokenize(d.Content))),
				preview(d.Title, 40),
			})
		}
		return stats.RenderTable(cmd.OutOrStdout(), []string{"ID", "Created", "Words", "Title"}, rows, map[int]bool{2: true})
	})
}

func runDocsRmCmd(_ *cobra.Command, args []string) error {
	return withStore(func(st *store.Store) error {
		if err := st.DeleteDocument(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		return nil
	})
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
