package sourceterm

import "go.uber.org/zap"

// LogSummary writes a human-readable description of the registry's terms
// for the given equation. Purely informational; nothing in the assembly
// depends on it.
func LogSummary(log *zap.Logger, equation string, r *Registry) {
	if log == nil {
		return
	}
	for id := 0; id < r.NumTerms(); id++ {
		t := r.Term(id)
		if t == nil {
			log.Warn("source term slot undefined",
				zap.String("equation", equation),
				zap.Int("id", id))
			continue
		}
		fields := []zap.Field{
			zap.String("equation", equation),
			zap.Int("id", id),
			zap.String("name", t.name),
			zap.Stringer("support", t.support),
			zap.Stringer("value_kind", t.value),
			zap.Stringer("definition", t.def),
			zap.String("subset", t.subset.Name),
			zap.Bool("full_domain", t.FullDomain()),
		}
		if t.def == DefByAnalytic {
			fields = append(fields, zap.Stringer("quadrature", t.quad))
		}
		if t.def == DefByArray {
			fields = append(fields, zap.Bool("owns_array", t.ownsArray))
		}
		log.Info("source term", fields...)
	}
}
