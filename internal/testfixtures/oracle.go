package testfixtures

import (
	"context"
	"errors"
	"sync"

	"github.com/example/app-bouncer/internal/application"
)

// ErrScriptExhausted is returned once a scripted oracle has no replies left.
var ErrScriptExhausted = errors.New("testfixtures: oracle script exhausted")

// OracleReply is one scripted answer. Err wins over Raw.
type OracleReply struct {
	Raw string
	Err error
}

// ScriptedOracle answers completions from a queue and records every request.
type ScriptedOracle struct {
	mu       sync.Mutex
	replies  []OracleReply
	requests []application.OracleRequest
}

// NewScriptedOracle returns an oracle that answers with replies in order.
func NewScriptedOracle(replies ...OracleReply) *ScriptedOracle {
	return &ScriptedOracle{replies: replies}
}

// Reply queues a raw answer.
func (o *ScriptedOracle) Reply(raw string) *ScriptedOracle {
	o.mu.Lock()
	o.replies = append(o.replies, OracleReply{Raw: raw})
	o.mu.Unlock()
	return o
}

// Fail queues an error.
func (o *ScriptedOracle) Fail(err error) *ScriptedOracle {
	o.mu.Lock()
	o.replies = append(o.replies, OracleReply{Err: err})
	o.mu.Unlock()
	return o
}

// Complete implements application.Oracle.
func (o *ScriptedOracle) Complete(ctx context.Context, req application.OracleRequest) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(o.replies) == 0 {
		return nil, ErrScriptExhausted
	}
	next := o.replies[0]
	o.replies = o.replies[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return []byte(next.Raw), nil
}

// Requests returns a copy of the requests seen so far.
func (o *ScriptedOracle) Requests() []application.OracleRequest {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]application.OracleRequest(nil), o.requests...)
}

// LastRequest returns the most recent request. ok is false when none arrived.
func (o *ScriptedOracle) LastRequest() (req application.OracleRequest, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.requests) == 0 {
		return application.OracleRequest{}, false
	}
	return o.requests[len(o.requests)-1], true
}

// Pending reports how many scripted replies remain.
func (o *ScriptedOracle) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.replies)
}

// StaticTranscriber returns a fixed transcript and remembers the audio it was
// handed.
type StaticTranscriber struct {
	Text string
	Err  error

	mu       sync.Mutex
	gotAudio []byte
	gotMIME  string
}

// Transcribe implements application.Transcriber.
func (t *StaticTranscriber) Transcribe(_ context.Context, audio []byte, mimeType string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gotAudio = append([]byte(nil), audio...)
	t.gotMIME = mimeType
	if t.Err != nil {
		return "", t.Err
	}
	return t.Text, nil
}

// Received returns the last audio payload and MIME type.
func (t *StaticTranscriber) Received() ([]byte, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gotAudio, t.gotMIME
}
