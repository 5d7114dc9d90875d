// Package graphtest provides a canned-response graph.Doer for endpoint tests.
package graphtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/s0up4200/metasync/graph"
)

// Doer records requests and answers them from canned JSON keyed by "METHOD /path"
type Doer struct {
	mu        sync.Mutex
	Responses map[string]string
	Errors    map[string]error
	Requests  []*graph.Request
}

// New creates a Doer answering with the given responses
func New(responses map[string]string) *Doer {
	return &Doer{
		Responses: responses,
		Errors:    map[string]error{},
	}
}

// Do implements graph.Doer
func (d *Doer) Do(ctx context.Context, req *graph.Request, out any) error {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	key := req.String()
	err := d.Errors[key]
	body, ok := d.Responses[key]
	d.mu.Unlock()

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("graphtest: no response for %s", key)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

// Last returns the most recent request, or nil
func (d *Doer) Last() *graph.Request {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.Requests) == 0 {
		return nil
	}
	return d.Requests[len(d.Requests)-1]
}
