package helpdesk

import (
	"context"

	"github.com/esfa/deskctl/internal/util/pagination"
)

// MockAPI is a function-field implementation of API for tests. Calling a
// method whose function is nil returns an empty result and no error.
type MockAPI struct {
	SearchOrganizationsFunc     func(ctx context.Context, q Query) (*SearchResults[Organization], error)
	SearchUsersFunc             func(ctx context.Context, q Query) (*SearchResults[User], error)
	BulkDeleteOrganizationsFunc func(ctx context.Context, ids []int64) error
	BulkDeleteUsersFunc         func(ctx context.Context, users []User) error
	UpdateUserFunc              func(ctx context.Context, user User) (*User, error)
}

var _ API = (*MockAPI)(nil)

func (m *MockAPI) SearchOrganizations(ctx context.Context, q Query) (*SearchResults[Organization], error) {
	if m.SearchOrganizationsFunc == nil {
		return &SearchResults[Organization]{Page: q.Page}, nil
	}
	return m.SearchOrganizationsFunc(ctx, q)
}

func (m *MockAPI) SearchUsers(ctx context.Context, q Query) (*SearchResults[User], error) {
	if m.SearchUsersFunc == nil {
		return &SearchResults[User]{Page: q.Page}, nil
	}
	return m.SearchUsersFunc(ctx, q)
}

func (m *MockAPI) BulkDeleteOrganizations(ctx context.Context, ids []int64) error {
	if m.BulkDeleteOrganizationsFunc == nil {
		return nil
	}
	return m.BulkDeleteOrganizationsFunc(ctx, ids)
}

func (m *MockAPI) BulkDeleteUsers(ctx context.Context, users []User) error {
	if m.BulkDeleteUsersFunc == nil {
		return nil
	}
	return m.BulkDeleteUsersFunc(ctx, users)
}

func (m *MockAPI) UpdateUser(ctx context.Context, user User) (*User, error) {
	if m.UpdateUserFunc == nil {
		return &user, nil
	}
	return m.UpdateUserFunc(ctx, user)
}

// Paged serves records as fixed pages of perPage, the way the search
// endpoint does, so tests can stand up deterministic result sets.
func Paged[T any](records []T, perPage int, page int) *SearchResults[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	var slice []T
	if start < len(records) {
		end := min(start+perPage, len(records))
		slice = append([]T(nil), records[start:end]...)
	}
	return &SearchResults[T]{
		Results:    slice,
		Count:      len(records),
		TotalPages: pagination.TotalPages(len(records), perPage),
		Page:       page,
	}
}
