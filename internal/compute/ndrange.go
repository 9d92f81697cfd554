package compute

import "fmt"

// NDRange is a three dimensional work partition: Global work items split
// into work-groups of Local items.
type NDRange struct {
	Global [3]int
	Local  [3]int
}

// NewNDRange builds an NDRange. Missing dims default to 1.
func NewNDRange(global, local []int) (NDRange, error) {
	if len(global) == 0 || len(global) > 3 || len(local) > 3 {
		return NDRange{}, fmt.Errorf("%w: global %v local %v", ErrBadRange, global, local)
	}
	r := NDRange{Global: [3]int{1, 1, 1}, Local: [3]int{1, 1, 1}}
	copy(r.Global[:], global)
	copy(r.Local[:], local)
	if err := r.Validate(); err != nil {
		return NDRange{}, err
	}
	return r, nil
}

// Validate checks that every local size is positive and divides the global size.
func (r NDRange) Validate() error {
	for i := 0; i < 3; i++ {
		if r.Global[i] <= 0 || r.Local[i] <= 0 || r.Global[i]%r.Local[i] != 0 {
			return fmt.Errorf("%w: global %v local %v", ErrBadRange, r.Global, r.Local)
		}
	}
	return nil
}

// WorkGroups returns the number of work-groups in each dimension.
func (r NDRange) WorkGroups() [3]int {
	return [3]int{
		r.Global[0] / r.Local[0],
		r.Global[1] / r.Local[1],
		r.Global[2] / r.Local[2],
	}
}

// NumItems returns the total number of work items.
func (r NDRange) NumItems() int {
	return r.Global[0] * r.Global[1] * r.Global[2]
}

// String implements fmt.Stringer.
func (r NDRange) String() string {
	return fmt.Sprintf("gws=%v lws=%v", r.Global, r.Local)
}
