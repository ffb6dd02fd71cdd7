package domain

import "sync"

// DefaultStaff is always allow-listed, whatever STAFF_PHONES says.
var DefaultStaff = []string{"79133318413"}

// AllowList is the set of phones authorized as staff. Additions made at
// runtime live only as long as the process.
type AllowList struct {
	mu     sync.RWMutex
	phones []string
	index  map[string]struct{}
}

// NewAllowList merges DefaultStaff with the given phones, normalizing and
// dropping empties and duplicates while keeping first-seen order.
func NewAllowList(phones ...string) *AllowList {
	a := &AllowList{index: make(map[string]struct{})}
	for _, p := range append(append([]string{}, DefaultStaff...), phones...) {
		a.add(NormalizePhone(p))
	}
	return a
}

func (a *AllowList) add(phone string) bool {
	if phone == "" {
		return false
	}
	if _, ok := a.index[phone]; ok {
		return false
	}
	a.index[phone] = struct{}{}
	a.phones = append(a.phones, phone)
	return true
}

// Add reports whether phone was newly added.
func (a *AllowList) Add(phone string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.add(NormalizePhone(phone))
}

func (a *AllowList) Contains(phone string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.index[phone]
	return ok
}

// Phones returns a copy in insertion order.
func (a *AllowList) Phones() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]string, len(a.phones))
	copy(out, a.phones)
	return out
}

// Directory resolves a phone into a Sender.
type Directory struct {
	AdminPhone string
	Staff      *AllowList
}

// Resolve returns ok=false for phones that are neither the admin nor staff.
func (d Directory) Resolve(phone, name string) (Sender, bool) {
	if phone == "" {
		return Sender{}, false
	}
	if d.AdminPhone != "" && phone == d.AdminPhone {
		return Sender{Phone: phone, Name: name, Role: RoleManager}, true
	}
	if d.Staff != nil && d.Staff.Contains(phone) {
		return Sender{Phone: phone, Name: name, Role: RoleStaff}, true
	}
	return Sender{}, false
}
