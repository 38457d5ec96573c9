// Package customer keeps the operator's address book of frequent
// recipients. The book is independent of the run sheet: forking a contact
// into a booking copies its fields, and later edits to either side do not
// propagate.
package customer

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Customer is one saved contact.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}

// Details is the editable part of a Customer.
type Details struct {
	Name    string
	Address string
	Contact string
}

// Book is the saved-contact list. Like booking.Store it is not safe for
// concurrent use.
type Book struct {
	newID     func() string
	customers []Customer
}

// NewBook returns an empty book. newID may be nil (uuid).
func NewBook(newID func() string) *Book {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Book{newID: newID}
}

// Len returns the number of saved contacts.
func (b *Book) Len() int {
	return len(b.customers)
}

// All returns a copy of the contacts in insertion order.
func (b *Book) All() []Customer {
	if len(b.customers) == 0 {
		return nil
	}
	return append([]Customer(nil), b.customers...)
}

// Get returns the contact with id.
func (b *Book) Get(id string) (Customer, bool) {
	for _, c := range b.customers {
		if c.ID == id {
			return c, true
		}
	}
	return Customer{}, false
}

// FindByName matches names case-insensitively, ignoring surrounding space.
func (b *Book) FindByName(name string) (Customer, bool) {
	key := normalize(name)
	for _, c := range b.customers {
		if normalize(c.Name) == key {
			return c, true
		}
	}
	return Customer{}, false
}

// Save adds a contact unless one with the same name already exists, in
// which case the existing contact is returned unchanged and added is false.
// Blank names are never saved.
func (b *Book) Save(d Details) (c Customer, added bool) {
	if strings.TrimSpace(d.Name) == "" {
		return Customer{}, false
	}
	if existing, ok := b.FindByName(d.Name); ok {
		return existing, false
	}
	c = Customer{
		ID:      b.newID(),
		Name:    strings.TrimSpace(d.Name),
		Address: strings.TrimSpace(d.Address),
		Contact: strings.TrimSpace(d.Contact),
	}
	b.customers = append(b.customers, c)
	return c, true
}

// Edit replaces the details of contact id. Edits skip the duplicate-name
// check, matching how the form treats an explicit edit.
func (b *Book) Edit(id string, d Details) bool {
	for i := range b.customers {
		if b.customers[i].ID != id {
			continue
		}
		b.customers[i].Name = strings.TrimSpace(d.Name)
		b.customers[i].Address = strings.TrimSpace(d.Address)
		b.customers[i].Contact = strings.TrimSpace(d.Contact)
		return true
	}
	return false
}

// Delete removes contact id.
func (b *Book) Delete(id string) bool {
	for i := range b.customers {
		if b.customers[i].ID == id {
			b.customers = append(b.customers[:i], b.customers[i+1:]...)
			return true
		}
	}
	return false
}

// Search returns contacts whose name contains term (case-insensitive),
// sorted by name. An empty term returns every contact.
func (b *Book) Search(term string) []Customer {
	key := normalize(term)
	var out []Customer
	for _, c := range b.customers {
		if key == "" || strings.Contains(normalize(c.Name), key) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return normalize(out[i].Name) < normalize(out[j].Name)
	})
	return out
}

// Replace swaps the whole book, dropping entries without an id.
func (b *Book) Replace(items []Customer) {
	b.customers = b.customers[:0]
	for _, c := range items {
		if strings.TrimSpace(c.ID) == "" {
			continue
		}
		b.customers = append(b.customers, c)
	}
}

// Decode parses a JSON array of contacts.
func Decode(data []byte) ([]Customer, error) {
	var items []Customer
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode customers: %w", err)
	}
	return items, nil
}

// Encode renders contacts as a JSON array ([] for nil).
func Encode(items []Customer) ([]byte, error) {
	if items == nil {
		items = []Customer{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode customers: %w", err)
	}
	return data, nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
