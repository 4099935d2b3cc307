package lead

import "time"

// Lead is a sales lead posted to the marketplace. Contact fields are never
// serialized on public listings; they are released through the entitlement
// unlock flow.
type Lead struct {
	ID          int       `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Location    string    `db:"location" json:"location"`
	Company     string    `db:"company" json:"company"`
	ContactName string    `db:"contact_name" json:"-"`
	ContactMail string    `db:"contact_email" json:"-"`
	ContactTel  string    `db:"contact_phone" json:"-"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Contact is the paid payload returned by an unlock.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (l *Lead) Contact() Contact {
	return Contact{
		Name:  l.ContactName,
		Email: l.ContactMail,
		Phone: l.ContactTel,
	}
}

type CreateLeadRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=255"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Company     string `json:"company"`
	ContactName string `json:"contact_name" binding:"required"`
	ContactMail string `json:"contact_email" binding:"required,email"`
	ContactTel  string `json:"contact_phone"`
}
