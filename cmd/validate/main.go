// Command validate checks the campsite request fixture used by the pipeline
// tests against the live domain code: every request must parse and
// validate, project onto the KMA grid, and resolve to the cell and outlook
// regions recorded in its expect block.
//
// Usage:
//
//	go run ./cmd/validate -requests data/mock/campsite_requests.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/campcast-forecast/internal/domain"
)

// KMA village forecast grid extent.
const (
	gridMaxX = 149
	gridMaxY = 253
)

type expectation struct {
	NX   int    `json:"nx"`
	NY   int    `json:"ny"`
	Land string `json:"land"`
	Temp string `json:"temp"`
}

type fixture struct {
	domain.ForecastRequest
	Expect expectation `json:"expect"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	requestsPath := flag.String("requests", "data/mock/campsite_requests.json", "path to campsite request fixture")
	landDefault := flag.String("default-land", domain.LandCapital, "default land outlook region")
	tempDefault := flag.String("default-temp", "11B10101", "default temperature outlook region")
	flag.Parse()

	if code := run(*requestsPath, domain.Regions{Land: *landDefault, Temperature: *tempDefault}); code != 0 {
		os.Exit(code)
	}
}

func run(path string, defaults domain.Regions) int {
	fmt.Println("=== Campsite Fixture Validation ===")
	fmt.Println()

	fixtures, err := loadJSON[fixture](path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateRequests(fixtures),
		validateGrid(fixtures, defaults),
		validateRegions(fixtures, defaults),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Requests: %d\n", len(fixtures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no entries in %s", path)
	}
	return out, nil
}

// validateRequests checks IDs are unique and each request passes the same
// validation the pipeline applies.
func validateRequests(fixtures []fixture) *phase {
	p := &phase{name: "Phase 1: request validation"}
	seen := make(map[string]bool, len(fixtures))
	for i, f := range fixtures {
		if f.ID == "" {
			p.errorf("entry %d: missing id", i)
		} else if seen[f.ID] {
			p.errorf("entry %d: duplicate id %q", i, f.ID)
		}
		seen[f.ID] = true

		if err := domain.ValidateRequest(f.ForecastRequest); err != nil {
			p.errorf("%s: %v", f.ID, err)
		}
	}
	return p
}

// validateGrid checks the resolved cell lies on the grid and matches the
// expected cell when one is recorded.
func validateGrid(fixtures []fixture, defaults domain.Regions) *phase {
	p := &phase{name: "Phase 2: grid projection"}
	for _, f := range fixtures {
		cell, _ := domain.ResolveRequest(f.ForecastRequest, defaults)
		if cell.NX < 1 || cell.NX > gridMaxX || cell.NY < 1 || cell.NY > gridMaxY {
			p.errorf("%s: cell %d,%d outside grid", f.ID, cell.NX, cell.NY)
		}
		if f.Expect.NX == 0 && f.Expect.NY == 0 {
			continue
		}
		if cell.NX != f.Expect.NX || cell.NY != f.Expect.NY {
			p.errorf("%s: cell %d,%d, expected %d,%d", f.ID, cell.NX, cell.NY, f.Expect.NX, f.Expect.NY)
		}
	}
	return p
}

// validateRegions checks the outlook regions derived from each address.
func validateRegions(fixtures []fixture, defaults domain.Regions) *phase {
	p := &phase{name: "Phase 3: outlook region resolution"}
	for _, f := range fixtures {
		_, regions := domain.ResolveRequest(f.ForecastRequest, defaults)
		if f.Expect.Land != "" && regions.Land != f.Expect.Land {
			p.errorf("%s: land region %s, expected %s", f.ID, regions.Land, f.Expect.Land)
		}
		if f.Expect.Temp != "" && regions.Temperature != f.Expect.Temp {
			p.errorf("%s: temperature region %s, expected %s", f.ID, regions.Temperature, f.Expect.Temp)
		}
		if f.Address != "" {
			if _, ok := domain.ResolveRegions(f.Address); !ok {
				p.errorf("%s: address %q not recognized", f.ID, f.Address)
			}
		}
	}
	return p
}
