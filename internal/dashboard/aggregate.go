// Package dashboard partitions record sets into per-class counts and sums.
package dashboard

// Bucket is the count and value sum for one class.
type Bucket struct {
	Count int   `json:"count"`
	Sum   int64 `json:"sum"`
}

type Summary[K comparable] struct {
	Count   int          `json:"count"`
	Total   int64        `json:"total"`
	ByClass map[K]Bucket `json:"byClass"`
}

// Of returns the bucket for k, zero if no row fell into it.
func (s Summary[K]) Of(k K) Bucket {
	return s.ByClass[k]
}

// Aggregate classifies every row and accumulates counts and values per class.
// Classes listed in known always appear in ByClass, with zero buckets when
// no row matched them. A nil value func counts rows without summing.
func Aggregate[T any, K comparable](rows []T, classify func(T) K, value func(T) int64, known ...K) Summary[K] {
	s := Summary[K]{ByClass: make(map[K]Bucket, len(known))}
	for _, k := range known {
		s.ByClass[k] = Bucket{}
	}

	for _, row := range rows {
		k := classify(row)

		var v int64
		if value != nil {
			v = value(row)
		}

		b := s.ByClass[k]
		b.Count++
		b.Sum += v
		s.ByClass[k] = b

		s.Count++
		s.Total += v
	}

	return s
}

// Count is Aggregate without a value.
func Count[T any, K comparable](rows []T, classify func(T) K, known ...K) Summary[K] {
	return Aggregate(rows, classify, nil, known...)
}
