package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombinedQuantities(t *testing.T) {
	need, ids := combinedQuantities([]ItemInput{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p1", Quantity: 3},
	})

	// The same product on two lines must reserve the summed quantity, so a
	// later release restores everything that was decremented.
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.Equal(t, 5, need["p1"])
	assert.Equal(t, 1, need["p2"])
}

func TestCombinedQuantities_NoDuplicates(t *testing.T) {
	need, ids := combinedQuantities([]ItemInput{
		{ProductID: "b", Quantity: 4},
		{ProductID: "a", Quantity: 1},
	})
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, 4, need["b"])
	assert.Equal(t, 1, need["a"])
}
