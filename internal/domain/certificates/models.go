package certificates

import "time"

type Certificate struct {
	ID         string     `json:"id"`
	WorkerID   string     `json:"workerId"`
	Name       string     `json:"name" validate:"required"`
	IssuedOn   *time.Time `json:"issuedOn,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	FilePath   string     `json:"filePath,omitempty"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Expired reports whether the certificate is past its validity on day.
func (c Certificate) Expired(day time.Time) bool {
	return c.ValidUntil != nil && c.ValidUntil.Before(day)
}

type OpKind string

const (
	OpAdd    OpKind = "add"
	OpEdit   OpKind = "edit"
	OpDelete OpKind = "delete"
)

// Op is one staged change. Ref names the target: a stored certificate id, or
// the ref an earlier add in the same buffer was staged under.
type Op struct {
	Kind        OpKind      `json:"kind"`
	Ref         string      `json:"ref"`
	Certificate Certificate `json:"certificate"`
}

// Item is one row of the buffered view.
type Item struct {
	Ref         string      `json:"ref"`
	New         bool        `json:"new"`
	Certificate Certificate `json:"certificate"`
}

// Changes is the net write a commit performs.
type Changes struct {
	Create []Certificate
	Update []Certificate
	Delete []string
}

func (c Changes) Empty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}
