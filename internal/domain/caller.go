package domain

// Caller is the identity a request acts under. Uploading may be anonymous;
// listing and download never are, so retrieval code paths reject any caller
// that is not authenticated before touching the catalog.
type Caller struct {
	authenticated bool
	id            int64
	admin         bool
}

func Anonymous() Caller {
	return Caller{}
}

func Authenticated(id int64, admin bool) Caller {
	return Caller{authenticated: true, id: id, admin: admin}
}

func (c Caller) Authenticated() bool { return c.authenticated }

func (c Caller) Admin() bool { return c.authenticated && c.admin }

// UserID is only meaningful when Authenticated returns true.
func (c Caller) UserID() int64 { return c.id }
