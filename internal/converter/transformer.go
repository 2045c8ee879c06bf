// =============================================================================
// Clinic Template Migrator - Row Coverage
// =============================================================================
//
// Generators fill the columns their source knows about. The writer projects
// each row onto the resolved header, so a column the header names but no
// generator fills is written empty, and a generated column the header does
// not name is dropped.
//
// Coverage measures both so an operator can see, before importing, which
// destination columns a migration actually populates. With a header override
// a renamed column shows up here as an unmapped key.
//
// =============================================================================

package converter

import (
	"slices"
	"strings"

	"github.com/ginjaninja78/clinic-template-migrator/internal/types"
)

// Coverage describes how generated rows map onto a header.
type Coverage struct {
	// Filled counts non-empty cells per header column.
	Filled map[string]int

	// Unmapped lists generated keys with at least one value that the header
	// does not name, sorted.
	Unmapped []string

	// Blank lists header columns no row fills, in header order.
	Blank []string
}

// Measure computes the coverage of rows against headers.
func Measure(rows []types.Row, headers []string) Coverage {
	inHeader := make(map[string]bool, len(headers))
	for _, h := range headers {
		inHeader[h] = true
	}

	c := Coverage{Filled: make(map[string]int, len(headers))}
	unmapped := make(map[string]bool)

	for _, row := range rows {
		for key, value := range row {
			if strings.TrimSpace(value) == "" {
				continue
			}
			if inHeader[key] {
				c.Filled[key]++
			} else {
				unmapped[key] = true
			}
		}
	}

	for _, h := range headers {
		if c.Filled[h] == 0 {
			c.Blank = append(c.Blank, h)
		}
	}
	for key := range unmapped {
		c.Unmapped = append(c.Unmapped, key)
	}
	slices.Sort(c.Unmapped)
	return c
}

// FilledColumns returns how many header columns carry at least one value.
func (c Coverage) FilledColumns() int {
	n := 0
	for _, count := range c.Filled {
		if count > 0 {
			n++
		}
	}
	return n
}
