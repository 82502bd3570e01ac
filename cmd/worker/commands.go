package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/kitapunya/expense-backend/internal/bootstrap"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// runStats prints directory totals.
func runStats(ctx context.Context, s *bootstrap.Services) error {
	st, err := s.Directory.Stats(ctx)
	if err != nil {
		return err
	}
	return printJSON(st)
}

// runRepair resolves a user's collection, which re-provisions a missing one,
// migrates a legacy handle and restores missing header columns.
func runRepair(ctx context.Context, s *bootstrap.Services, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: repair <email>")
	}
	c, err := s.Resolver.Resolve(ctx, args[0], "")
	if err != nil {
		return err
	}
	fmt.Printf("collection for %s: handle=%s title=%s\n", args[0], c.Handle, c.Title)
	return nil
}

// runExport writes a user's export document to stdout.
func runExport(ctx context.Context, s *bootstrap.Services, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: export <email>")
	}
	out, err := s.Users.Export(ctx, args[0])
	if err != nil {
		return err
	}
	return printJSON(out)
}
