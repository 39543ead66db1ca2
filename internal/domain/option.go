package domain

// Option is one weighted testimony token. Weight ranks how strongly the
// witness points at a fact (1..6), Order is the 1-based slot of the shown
// card it sits on, and IndexOnCard is the fact index on that card.
type Option struct {
	Weight      int `json:"weight"`
	Order       int `json:"order"`
	IndexOnCard int `json:"indexOnCard"`
}

// NewOption returns an unplaced token unless indexOnCard is non-negative.
func NewOption(weight, indexOnCard int) Option {
	return Option{Weight: weight, IndexOnCard: indexOnCard}
}

func EmptyOption() Option {
	return Option{IndexOnCard: -1}
}

// NewEmptyOptions returns n unplaced tokens weighted 1..n.
func NewEmptyOptions(n int) []Option {
	opts := make([]Option, n)
	for i := range opts {
		opts[i] = Option{Weight: i + 1, IndexOnCard: -1}
	}
	return opts
}

func (o Option) IsEmpty() bool {
	return o.IndexOnCard < 0
}
