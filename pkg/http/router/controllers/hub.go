package controllers

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/roadmatch/pkg/concurrent"
	"github.com/lintang-b-s/roadmatch/pkg/util"
)

type User struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	id  uint
	hub *Hub
}

func (u *User) readRequest() (*mapMatchRequest, error) {
	u.io.Lock()
	defer u.io.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &mapMatchRequest{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// RouteMatching. reads one trace frame and replies with the same envelope as POST /api/routeMatching.
// a returned error means the connection must be closed.
func (u *User) RouteMatching() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}

	if req == nil {
		return nil
	}

	if err := validateRequest(req); err != nil {
		return u.write(errorEnvelope(http.StatusBadRequest, err.Error()))
	}

	match, err := u.hub.mapmatchingService.RouteMatching(req.toMatchRequest())
	if err != nil {
		status := statusCode(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = util.MessageInternalServerError
		}
		return u.write(errorEnvelope(status, msg))
	}

	return u.write(envelope{"data": NewMapmatchingResponse(match)})
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.io.Lock()
	defer u.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

type Hub struct {
	mu                 sync.RWMutex
	seq                uint
	us                 []*User
	ns                 map[uint]*User
	mapmatchingService MapMatcherService

	pool *concurrent.GoroutinePool
}

func NewHub(pool *concurrent.GoroutinePool, mmService MapMatcherService) *Hub {
	hub := &Hub{
		pool:               pool,
		ns:                 make(map[uint]*User),
		us:                 make([]*User, 0),
		mapmatchingService: mmService,
	}

	return hub
}

func (h *Hub) Register(conn net.Conn) *User {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	h.ns[user.id] = user
	h.us = append(h.us, user)

	h.seq++
	h.mu.Unlock()

	return user
}

// Remove. us stays sorted by id (increasing seq)
func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(user)
}

func (h *Hub) remove(user *User) bool {
	if _, ok := h.ns[user.id]; !ok {
		return false
	}
	delete(h.ns, user.id)

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
	return true
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}

// RemoveAllUser. closes every connection
func (h *Hub) RemoveAllUser() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for len(h.us) > 0 {
		user := h.us[0]
		h.remove(user)
		user.conn.Close()
	}
}
