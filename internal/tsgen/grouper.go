package tsgen

// resolveImports fills UsedTypeNames and Imports of every group. Imports keep the order
// in which candidates were first seen across the whole document.
func resolveImports(groups []*TagGroup, candidates []string) {
	for _, g := range groups {
		g.UsedTypeNames = usedTypeNames(g.Operations)

		used := make(map[string]bool, len(g.UsedTypeNames))
		for _, name := range g.UsedTypeNames {
			used[name] = true
		}

		g.Imports = make([]string, 0)
		for _, name := range candidates {
			if used[name] {
				g.Imports = append(g.Imports, name)
			}
		}
	}
}

func usedTypeNames(ops []*OperationDescriptor) []string {
	names := make([]string, 0)
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || name == TypeUndefined || name == TypeUnknown || seen[name] {
			return
		}
		seen[name] = true
		names = append(names, name)
	}

	for _, op := range ops {
		for _, p := range op.Parameters {
			add(p.Type)
		}
		add(op.Response)
		add(op.ResponseItem)
	}
	return names
}
