package validate

// Rejected records one entry dropped by a collection validation pass,
// with the field-level reasons it failed.
type Rejected[T any] struct {
	Index  int
	Entry  T
	Errors map[string]string
}

// Slice runs Struct over every element of items and splits the input into
// the entries that passed and the ones that failed (with reasons). The
// relative order of valid entries is preserved.
func Slice[T any](items []T) (valid []T, rejected []Rejected[T]) {
	for i, item := range items {
		errs := Struct(item)
		if HasErrors(errs) {
			rejected = append(rejected, Rejected[T]{Index: i, Entry: item, Errors: errs})
			continue
		}
		valid = append(valid, item)
	}
	return valid, rejected
}
