/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package jservice

import (
	"math/rand/v2"
)

// SampleSize returns up to n distinct elements of items, chosen uniformly at
// random. items is left untouched. When n exceeds len(items), every element
// is returned in random order.
func SampleSize[T any](r *rand.Rand, items []T, n int) []T {
	if n <= 0 || len(items) == 0 {
		return []T{}
	}
	if n > len(items) {
		n = len(items)
	}

	pool := make([]T, len(items))
	copy(pool, items)

	// Partial Fisher-Yates: only the first n slots need to be settled.
	for i := 0; i < n; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:n]
}
