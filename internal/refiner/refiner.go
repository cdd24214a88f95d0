// Package refiner implements the optional second pass that rewrites a
// translation's description fluently in the target language.
package refiner

import "context"

// Refiner rewrites description in the target language. Implementations
// never fail: any problem yields the input unchanged.
type Refiner interface {
	Refine(ctx context.Context, description, targetName, targetCode string) string
}
