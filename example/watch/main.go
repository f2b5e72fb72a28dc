package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/nextpkg/vrule"
)

// Demonstrates hot reload: the rule set is re-compiled whenever the
// definition file changes, and readers keep seeing a complete set.
func main() {
	dir, err := os.MkdirTemp("", "vrule-watch")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(path, []byte("types: [string]\nmaxLength: 4\n"), 0o644); err != nil {
		log.Fatal(err)
	}

	m, err := vrule.NewManager(path)
	if err != nil {
		log.Fatalf("initial load failed: %v", err)
	}
	defer m.Close()

	m.OnReload(func(rs *vrule.RuleSet) {
		n, _ := rs.MaxLength()
		fmt.Printf("reloaded: maxLength is now %d\n", n)
	})

	if err := m.EnableWatch(); err != nil {
		log.Fatalf("watch failed: %v", err)
	}

	fmt.Println("with maxLength=4:", m.Validate("hello"))

	// Relax the bound; the manager picks it up from the file change.
	if err := os.WriteFile(path, []byte("types: [string]\nmaxLength: 8\n"), 0o644); err != nil {
		log.Fatal(err)
	}

	time.Sleep(time.Second)
	fmt.Println("with maxLength=8:", m.Validate("hello"))
}
