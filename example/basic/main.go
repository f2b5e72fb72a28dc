package main

import (
	"fmt"
	"log"

	"github.com/nextpkg/vrule"
)

func main() {
	fmt.Println("vrule basic usage demo")
	fmt.Println("======================")

	// Build a rule set for a username field: lowercase, 3 to 12 characters.
	username := vrule.NewBuilder().
		Types("string").
		MinLength(3).
		MaxLength(12).
		Regex("^[a-z][a-z0-9_]*$").
		MustBuild()

	for _, candidate := range []any{"bob", "x", "Bob", "valid_name", 42, nil} {
		r := username.Evaluate(candidate)
		if r.OK {
			fmt.Printf("  %-12v accepted\n", candidate)
		} else {
			fmt.Printf("  %-12v rejected by %s\n", candidate, r.FailedCheck)
		}
	}

	// The same rules from a declarative map, like a config file would carry.
	level, err := vrule.FromMap(map[string]any{
		"types":         []string{"string"},
		"allowedValues": []any{"debug", "info", "warn", "error"},
		"nocase":        true,
		"x-doc":         "log level field", // ignore-prefixed metadata
	})
	if err != nil {
		log.Fatalf("failed to build rule set: %v", err)
	}

	if err := level.Check("INFO"); err != nil {
		log.Fatalf("unexpected: %v", err)
	}
	fmt.Println("\nlevel INFO accepted (case-insensitive allowed values)")

	if err := level.Check("verbose"); err != nil {
		fmt.Printf("level verbose rejected: %v\n", err)
	}
}
