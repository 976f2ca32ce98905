package domain

// UserEntry is one operator account the merchant can act as.
type UserEntry struct {
	Email            string `json:"email"`
	CanPerformAction bool   `json:"canPerformAction"`
}

// NormalizeUsers drops entries without an e-mail and collapses duplicates.
// A repeated e-mail keeps the position of its first occurrence and the value
// of its last one.
func NormalizeUsers(in []UserEntry) []UserEntry {
	out := make([]UserEntry, 0, len(in))
	index := make(map[string]int, len(in))
	for _, u := range in {
		if u.Email == "" {
			continue
		}
		if i, ok := index[u.Email]; ok {
			out[i] = u
			continue
		}
		index[u.Email] = len(out)
		out = append(out, u)
	}
	return out
}

// FindUser returns the entry with the given e-mail.
func FindUser(users []UserEntry, email string) (UserEntry, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return UserEntry{}, false
}
