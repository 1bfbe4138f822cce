//go:build ignore

// Generates a reproducible item set for `busctl import --file -`.
package main

import (
	"encoding/json"
	"fmt"
	mrand "math/rand"
	"os"

	"github.com/mithrel/msgbus/pkg/api"
)

var namespaces = []string{"artist", "character", "female", "male", "language", "parody"}

var syllables = []string{"ka", "ri", "mo", "to", "na", "shi", "ra", "ne", "yu", "ko", "ha", "mi"}

func main() {
	// Deterministic seed for reproducible output
	mr := mrand.New(mrand.NewSource(42))

	const total = 500
	seen := make(map[string]struct{}, total)
	enc := json.NewEncoder(os.Stdout)
	for len(seen) < total {
		ns := namespaces[mr.Intn(len(namespaces))]
		name := word(mr, 2+mr.Intn(3))
		it := api.Item{
			Namespace:   ns,
			Name:        name,
			Translation: word(mr, 2),
			Intro:       fmt.Sprintf("Sample %s entry %q.", ns, name),
		}
		if _, dup := seen[it.Key()]; dup {
			continue
		}
		seen[it.Key()] = struct{}{}
		if err := enc.Encode(it); err != nil {
			panic(err)
		}
	}
}

func word(r *mrand.Rand, n int) string {
	b := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		b = append(b, syllables[r.Intn(len(syllables))]...)
	}
	return string(b)
}
