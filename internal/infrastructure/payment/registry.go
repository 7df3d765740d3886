package payment

import "github.com/rubenrizquez10/comicstore/internal/domain/payment"

// Registry dispatches payment strategies by method name, so adding a
// gateway is a registration, not a new conditional.
type Registry struct {
	strategies map[string]payment.Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]payment.Strategy)}
}

func (r *Registry) Register(method string, s payment.Strategy) {
	r.strategies[method] = s
}

func (r *Registry) Get(method string) (payment.Strategy, bool) {
	s, ok := r.strategies[method]
	return s, ok
}
