package aggregator

import (
	"cmp"
	"slices"
)

// Group es una clave con su valor reducido.
type Group[K cmp.Ordered, A any] struct {
	Key   K
	Value A
}

// GroupBy agrupa los items por clave y reduce cada grupo partiendo del valor
// cero de A. Los items para los que key devuelve false se ignoran.
// Los grupos salen ordenados por clave ascendente.
func GroupBy[T any, K cmp.Ordered, A any](items []T, key func(T) (K, bool), reduce func(A, T) A) []Group[K, A] {
	acc := make(map[K]A)
	for _, it := range items {
		k, ok := key(it)
		if !ok {
			continue
		}
		acc[k] = reduce(acc[k], it)
	}

	out := make([]Group[K, A], 0, len(acc))
	for k, v := range acc {
		out = append(out, Group[K, A]{Key: k, Value: v})
	}
	slices.SortFunc(out, func(a, b Group[K, A]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}
