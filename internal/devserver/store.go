package devserver

import (
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/felixgeelhaar/gemora/internal/portal"
)

type account struct {
	portal.User
	passwordHash []byte
	// tokenVersion is embedded in issued tokens; bumping it revokes them.
	tokenVersion int
}

// data is the in-memory backend state.
type data struct {
	mu      sync.RWMutex
	users   map[int64]*account
	gems    map[int64]*portal.Gem
	tickets map[int64]*portal.Ticket
	nextID  int64
	cost    int
}

func newData(cost int) *data {
	return &data{
		users:   make(map[int64]*account),
		gems:    make(map[int64]*portal.Gem),
		tickets: make(map[int64]*portal.Ticket),
		nextID:  1,
		cost:    cost,
	}
}

func (d *data) allocID() int64 {
	id := d.nextID
	d.nextID++
	return id
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// addUser creates an account. It fails if the email is taken.
func (d *data) addUser(u portal.User, password string) (portal.User, bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.cost)
	if err != nil {
		return portal.User{}, false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, a := range d.users {
		if strings.EqualFold(a.Email, u.Email) {
			return portal.User{}, false, nil
		}
	}
	u.ID = d.allocID()
	d.users[u.ID] = &account{User: u, passwordHash: hash}
	return u, true, nil
}

// authenticate returns the user for email and its token version if password
// matches.
func (d *data) authenticate(email, password string) (portal.User, int, bool) {
	d.mu.RLock()
	var (
		found   bool
		user    portal.User
		version int
		hash    []byte
	)
	for _, a := range d.users {
		if strings.EqualFold(a.Email, email) {
			found, user, version, hash = true, a.User, a.tokenVersion, a.passwordHash
			break
		}
	}
	d.mu.RUnlock()

	if !found || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return portal.User{}, 0, false
	}
	return user, version, true
}

func (d *data) user(id int64) (portal.User, int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.users[id]
	if !ok {
		return portal.User{}, 0, false
	}
	return a.User, a.tokenVersion, true
}

func (d *data) listUsers() []portal.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]portal.User, 0, len(d.users))
	for _, a := range d.users {
		out = append(out, a.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) searchUsers(q string) []portal.User {
	q = strings.ToLower(strings.TrimSpace(q))
	var out []portal.User
	for _, u := range d.listUsers() {
		if q == "" ||
			strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}

func (d *data) updateUser(id int64, fn func(a *account)) (portal.User, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.users[id]
	if !ok {
		return portal.User{}, false
	}
	fn(a)
	return a.User, true
}

func (d *data) deleteUser(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[id]; !ok {
		return false
	}
	delete(d.users, id)
	return true
}

// changePassword verifies current and stores next, revoking older tokens.
func (d *data) changePassword(id int64, current, next string) (ok bool, found bool, err error) {
	d.mu.RLock()
	a, exists := d.users[id]
	var hash []byte
	if exists {
		hash = a.passwordHash
	}
	d.mu.RUnlock()
	if !exists {
		return false, false, nil
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(current)) != nil {
		return false, true, nil
	}
	hash, err = bcrypt.GenerateFromPassword([]byte(next), d.cost)
	if err != nil {
		return false, true, err
	}

	d.mu.Lock()
	a.passwordHash = hash
	a.tokenVersion++
	d.mu.Unlock()
	return true, true, nil
}

func (d *data) addGem(g portal.Gem) portal.Gem {
	d.mu.Lock()
	defer d.mu.Unlock()
	g.ID = d.allocID()
	if g.Status == "" {
		g.Status = portal.GemPending
	}
	g.CreatedAt = now()
	g.UpdatedAt = g.CreatedAt
	d.gems[g.ID] = &g
	return g
}

func (d *data) gemsWithStatus(status string) []portal.Gem {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := []portal.Gem{}
	for _, g := range d.gems {
		if g.Status == status {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// setGemStatus moves a pending gem to status. It reports found and whether
// the gem was pending.
func (d *data) setGemStatus(id int64, status, reason string) (portal.Gem, bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.gems[id]
	if !ok {
		return portal.Gem{}, false, false
	}
	if g.Status != portal.GemPending {
		return *g, true, false
	}
	g.Status = status
	g.RejectionReason = reason
	g.UpdatedAt = now()
	return *g, true, true
}

func (d *data) deleteGem(id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.gems[id]; !ok {
		return false
	}
	delete(d.gems, id)
	return true
}

func (d *data) addTicket(t portal.Ticket) portal.Ticket {
	d.mu.Lock()
	defer d.mu.Unlock()
	t.ID = d.allocID()
	if t.Status == "" {
		t.Status = portal.TicketOpen
	}
	t.CreatedAt = now()
	d.tickets[t.ID] = &t
	return t
}

func (d *data) listTickets() []portal.Ticket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]portal.Ticket, 0, len(d.tickets))
	for _, t := range d.tickets {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) replyTicket(id int64, r portal.TicketReply) (portal.Ticket, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.tickets[id]
	if !ok {
		return portal.Ticket{}, false
	}
	t.AdminReply = r.AdminReply
	t.Status = r.Status
	return *t, true
}
