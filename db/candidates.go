// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielhkuo/tally-booth/models"
)

var ErrCandidateMismatch = errors.New("stored candidate differs from candidate list")

// defaultParties is the ballot used when no candidate file is given.
var defaultParties = []string{
	"เพื่อไทย (Pheu Thai)",
	"ก้าวไกล (Move Forward)",
	"พืชศรุษ (Bhumjaithai)",
	"ประชาธิปไตย (Democrat)",
	"ชาติไทย (Thai Nation)",
	"คนไทยสร้างไทย (Thai Build Thailand)",
	"สยาม (Siam)",
	"พลังประชารัฐ (Popular Force)",
	"ประชาชนใจสุไทย (Thai People)",
	"อนาคตไทย (Future Thailand)",
}

type candidateFile struct {
	Candidates []struct {
		ID   int64  `yaml:"id"`
		Name string `yaml:"name"`
	} `yaml:"candidates"`
}

// DefaultCandidates returns the built-in party list with ids 1..n.
func DefaultCandidates() []models.Candidate {
	candidates := make([]models.Candidate, len(defaultParties))
	for i, name := range defaultParties {
		candidates[i] = models.Candidate{ID: int64(i + 1), Name: name}
	}
	return candidates
}

// LoadCandidates reads the candidate list from a YAML file:
//
//	candidates:
//	  - id: 1
//	    name: Alpha
//	  - name: Beta # id defaults to the 1-based position
//
// An empty path returns DefaultCandidates.
func LoadCandidates(path string) ([]models.Candidate, error) {
	if path == "" {
		return DefaultCandidates(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read candidate file: %w", err)
	}

	var file candidateFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse candidate file: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(file.Candidates))
	for i, c := range file.Candidates {
		id := c.ID
		if id == 0 {
			id = int64(i + 1)
		}
		candidates = append(candidates, models.Candidate{ID: id, Name: strings.TrimSpace(c.Name)})
	}
	if err := ValidateCandidates(candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

// ValidateCandidates checks that the list is non-empty and that ids are
// positive and unique and names are non-empty and unique.
func ValidateCandidates(candidates []models.Candidate) error {
	if len(candidates) == 0 {
		return errors.New("candidate list is empty")
	}

	ids := make(map[int64]bool, len(candidates))
	names := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c.ID <= 0 {
			return fmt.Errorf("candidate %q has invalid id %d", c.Name, c.ID)
		}
		if c.Name == "" {
			return fmt.Errorf("candidate %d has no name", c.ID)
		}
		if ids[c.ID] {
			return fmt.Errorf("duplicate candidate id %d", c.ID)
		}
		if names[c.Name] {
			return fmt.Errorf("duplicate candidate name %q", c.Name)
		}
		ids[c.ID] = true
		names[c.Name] = true
	}
	return nil
}

// SeedCandidates inserts the candidates that are not stored yet and
// returns how many were inserted. Existing rows, and their tallies, are
// never modified; a stored row whose name differs from the list fails
// with ErrCandidateMismatch.
func SeedCandidates(ctx context.Context, db *sql.DB, candidates []models.Candidate) (int, error) {
	if err := ValidateCandidates(candidates); err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	for _, c := range candidates {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO candidate (id, name, tally)
			VALUES ($1, $2, 0)
			ON CONFLICT DO NOTHING
		`, c.ID, c.Name)
		if err != nil {
			return 0, fmt.Errorf("failed to insert candidate %d: %w", c.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to insert candidate %d: %w", c.ID, err)
		}
		if n > 0 {
			inserted++
			continue
		}

		var stored string
		err = tx.QueryRowContext(ctx, `SELECT name FROM candidate WHERE id = $1`, c.ID).Scan(&stored)
		if err == sql.ErrNoRows {
			// The name is taken by another id.
			return 0, fmt.Errorf("%w: name %q", ErrCandidateMismatch, c.Name)
		}
		if err != nil {
			return 0, fmt.Errorf("failed to query candidate %d: %w", c.ID, err)
		}
		if stored != c.Name {
			return 0, fmt.Errorf("%w: id %d is %q, not %q", ErrCandidateMismatch, c.ID, stored, c.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit candidates: %w", err)
	}
	return inserted, nil
}
