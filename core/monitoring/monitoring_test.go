package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recorder struct {
	errs    []error
	tags    []map[string]string
	flushed time.Duration
}

func (r *recorder) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recorder) Recover()              {}
func (r *recorder) Flush(d time.Duration) { r.flushed = d }

func TestInitAndCapture(t *testing.T) {
	defer Init(NopMonitor{})
	r := &recorder{}
	Init(r)
	Init(nil)
	if Current() != r {
		t.Fatalf("nil must not replace the monitor")
	}
	CaptureException(errors.New("boom"), map[string]string{"module": "engine"})
	Flush(time.Second)
	if len(r.errs) != 1 || r.tags[0]["module"] != "engine" {
		t.Fatalf("unexpected capture %+v", r)
	}
	if r.flushed != time.Second {
		t.Fatalf("flush not forwarded")
	}
}
