package connection

import (
	"context"
)

// Pipeline sends many requests before reading any response. Each request is
// tagged with a caller-chosen key; Drain returns responses by key.
type Pipeline struct {
	rpc     *RPC
	entries []pipelineEntry
}

type pipelineEntry struct {
	key string
	id  uint64
	ch  chan Response
}

// Send issues a request without waiting for its response.
func (p *Pipeline) Send(key, method string, params any) error {
	id, ch, err := p.rpc.send(method, params)
	if err != nil {
		return err
	}
	p.entries = append(p.entries, pipelineEntry{key: key, id: id, ch: ch})
	return nil
}

// Len returns the number of requests issued.
func (p *Pipeline) Len() int {
	return len(p.entries)
}

// Drain waits for a response to every issued request, or until ctx is done.
// Requests that got no response (timeout or lost connection) are absent from
// the result; that is not an error.
func (p *Pipeline) Drain(ctx context.Context) map[string]Response {
	out := make(map[string]Response, len(p.entries))

	for i, e := range p.entries {
		select {
		case resp, ok := <-e.ch:
			if ok {
				out[e.key] = resp
			}
		case <-ctx.Done():
			for _, rest := range p.entries[i:] {
				p.rpc.forget(rest.id)
				select {
				case resp, ok := <-rest.ch:
					if ok {
						out[rest.key] = resp
					}
				default:
				}
			}
			p.entries = nil
			return out
		}
	}

	p.entries = nil
	return out
}
