package apps_script_client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var ErrMalformedCallback = errors.New("malformed callback response")

// callbackRegistry correlates callback-style responses with the request that
// registered them. Each registration is delivered at most once and is always
// removed, whichever way the request ends.
type callbackRegistry struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

func newCallbackRegistry() *callbackRegistry {
	return &callbackRegistry{
		pending: make(map[string]chan json.RawMessage),
	}
}

// register reserves a unique callback name. The returned release func must be
// called on every exit path; it is safe to call more than once.
func (r *callbackRegistry) register() (string, <-chan json.RawMessage, func()) {
	name := CallbackPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
	ch := make(chan json.RawMessage, 1)

	r.mu.Lock()
	r.pending[name] = ch
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.pending, name)
		r.mu.Unlock()
	}
	return name, ch, release
}

// deliver hands payload to the registration for name and removes it. It
// returns false when nobody is waiting, e.g. the request already timed out.
func (r *callbackRegistry) deliver(name string, payload json.RawMessage) bool {
	r.mu.Lock()
	ch, ok := r.pending[name]
	if ok {
		delete(r.pending, name)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	ch <- payload
	return true
}

func (r *callbackRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// parseCallback splits a `name({...});` response into the callback name and
// its JSON argument.
func parseCallback(body []byte) (string, json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	open := bytes.IndexByte(body, '(')
	if open <= 0 {
		return "", nil, fmt.Errorf("%w: missing callback name", ErrMalformedCallback)
	}
	rest := bytes.TrimRight(body[open+1:], "; \n\r\t")
	if len(rest) == 0 || rest[len(rest)-1] != ')' {
		return "", nil, fmt.Errorf("%w: unterminated callback", ErrMalformedCallback)
	}

	name := string(bytes.TrimSpace(body[:open]))
	payload := bytes.TrimSpace(rest[:len(rest)-1])
	if !json.Valid(payload) {
		return "", nil, fmt.Errorf("%w: payload is not JSON", ErrMalformedCallback)
	}
	return name, json.RawMessage(payload), nil
}
