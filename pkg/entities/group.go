package entities

import "strings"

// Group is the read-only roster view of groups/{groupId}.
type Group struct {
	ID           string
	Name         string
	MemberIDs    []string
	MemberPhones map[string]string
	MemberNames  map[string]string
}

// Phone returns the member's phone number, if one is on file.
func (g Group) Phone(uid string) (string, bool) {
	phone := strings.TrimSpace(g.MemberPhones[uid])
	return phone, phone != ""
}

// Recipients lists every member with a known phone number, in roster order.
func (g Group) Recipients() []Recipient {
	out := make([]Recipient, 0, len(g.MemberIDs))
	for _, uid := range g.MemberIDs {
		if phone, ok := g.Phone(uid); ok {
			out = append(out, Recipient{UID: uid, Phone: phone})
		}
	}
	return out
}

type Recipient struct {
	UID   string
	Phone string
}
