package tsgen

// typeRegistry holds the synthesis state of one document.
type typeRegistry struct {
	// type produced for a schema node, keyed by the node's synthetic ID
	byID map[int]string
	// names reserved by a declaration; once set, synthesis under the name short-circuits
	emitted    map[string]bool
	inProgress map[int]bool

	decls map[string]*Declaration
	order []*Declaration
}

func newTypeRegistry() *typeRegistry {
	return &typeRegistry{
		byID:       make(map[int]string),
		emitted:    make(map[string]bool),
		inProgress: make(map[int]bool),
		decls:      make(map[string]*Declaration),
		order:      []*Declaration{},
	}
}

func (r *typeRegistry) add(decl *Declaration) {
	r.emitted[decl.Name] = true
	r.decls[decl.Name] = decl
	r.order = append(r.order, decl)
}

func (r *typeRegistry) isDeclared(name string) bool {
	_, ok := r.decls[name]
	return ok
}

// emitOrder returns the declarations so that each one follows the declarations it
// depends on. Roots are visited in creation order with response aliases last; a
// dependency that is already on the DFS stack (a cycle through $ref) is skipped.
func (r *typeRegistry) emitOrder() []*Declaration {
	const (
		visiting = 1
		done     = 2
	)

	state := make(map[string]int, len(r.order))
	out := make([]*Declaration, 0, len(r.order))

	var visit func(d *Declaration)
	visit = func(d *Declaration) {
		if state[d.Name] != 0 {
			return
		}
		state[d.Name] = visiting
		for _, dep := range d.deps {
			if next, ok := r.decls[dep]; ok {
				visit(next)
			}
		}
		state[d.Name] = done
		out = append(out, d)
	}

	for _, d := range r.order {
		if d.kind != kindResponseAlias {
			visit(d)
		}
	}
	for _, d := range r.order {
		if d.kind == kindResponseAlias {
			visit(d)
		}
	}
	return out
}
