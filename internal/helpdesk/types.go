package helpdesk

import (
	"time"
)

// Kind selects the record schema and the search type filter
type Kind string

const (
	KindOrganization = Kind("organization")
	KindUser         = Kind("user")
)

func (k Kind) String() string {
	return string(k)
}

// RoleEndUser is the role of customer accounts, the only users a cleanup deletes
const RoleEndUser = "end-user"

// Organization is the subset of the organization resource the cleanup reads
type Organization struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// User is the subset of the user resource the cleanup reads and writes back.
// SharedPhoneNumber is tri-state: nil means the field is unset.
type User struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	Role              string     `json:"role,omitempty"`
	SharedPhoneNumber *bool      `json:"shared_phone_number,omitempty"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

func (u User) String() string {
	if u.Email != "" {
		return u.Name + " <" + u.Email + ">"
	}
	return u.Name
}

// Query is a search filter plus the page to read. Page is 1-based.
type Query struct {
	Kind    Kind
	Filter  string
	Page    int
	PerPage int
}

// Expression renders the search expression sent in the query parameter
func (q Query) Expression() string {
	if q.Filter == "" {
		return "type:" + q.Kind.String()
	}
	return "type:" + q.Kind.String() + " " + q.Filter
}

// WithPage returns a copy of q targeting page
func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

// SearchResults is one page of a search. Count and TotalPages describe the
// whole result set and are read from the first page only.
type SearchResults[T any] struct {
	Results    []T
	Count      int
	TotalPages int
	Page       int
}
