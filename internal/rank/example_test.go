package rank_test

import (
	"fmt"

	"github.com/papapumpkin/linkrank/internal/rank"
)

func ExampleTopK() {
	scores := []float64{0.25, 0.75, 0.25, 0.5}
	for _, e := range rank.TopK(scores, 3) {
		fmt.Printf("node %d: %.2f\n", e.ID, e.Score)
	}
	// Output:
	// node 1: 0.75
	// node 3: 0.50
	// node 0: 0.25
}
