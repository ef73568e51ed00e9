package tsgen

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEmitOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		decls []*Declaration
		want  []string
	}{
		{
			name: "dependencies first",
			decls: []*Declaration{
				{Name: "Order", deps: []string{"Customer", "OrderLine"}},
				{Name: "OrderLine", deps: []string{"Product"}},
				{Name: "Customer"},
				{Name: "Product"},
			},
			want: []string{"Customer", "Product", "OrderLine", "Order"},
		},
		{
			name: "response aliases last",
			decls: []*Declaration{
				{Name: "User"},
				{Name: "ListUsersResponse", AliasOf: "User[]", kind: kindResponseAlias, deps: []string{"User"}},
				{Name: "CreateUserRequest"},
			},
			want: []string{"User", "CreateUserRequest", "ListUsersResponse"},
		},
		{
			name: "reference cycles are broken in creation order",
			decls: []*Declaration{
				{Name: "Parent", deps: []string{"Child"}},
				{Name: "Child", deps: []string{"Parent"}},
			},
			want: []string{"Child", "Parent"},
		},
		{
			name: "unknown dependencies are ignored",
			decls: []*Declaration{
				{Name: "Tagged", deps: []string{"string", "Missing"}},
			},
			want: []string{"Tagged"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTypeRegistry()
			for _, d := range tt.decls {
				r.add(d)
			}

			got := make([]string, 0, len(tt.decls))
			for _, d := range r.emitOrder() {
				got = append(got, d.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("emitOrder() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
