package datasource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type (
	fakeDataSource struct {
		name    string
		props   Properties
		pingErr error
		closed  atomic.Bool
		journal *journal
	}

	fakeFactory struct {
		opens   atomic.Int32
		journal *journal
		openErr map[string]error
		pingErr map[string]error
	}

	journal struct {
		mu     sync.Mutex
		closed []string
	}
)

func (j *journal) record(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = append(j.closed, name)
}

func (f *fakeDataSource) Name() string {
	return f.name
}

func (f *fakeDataSource) Ping(context.Context) error {
	return f.pingErr
}

func (f *fakeDataSource) Stats() Stats {
	return Stats{MaxOpen: 10}
}

func (f *fakeDataSource) Close() error {
	f.closed.Store(true)
	if f.journal != nil {
		f.journal.record(f.name)
	}
	if f.name == "broken" {
		return errors.New("connection already closed")
	}
	return nil
}

func (f *fakeFactory) Open(_ context.Context, name string, props Properties) (DataSource, error) {
	f.opens.Add(1)
	if err := f.openErr[name]; err != nil {
		return nil, err
	}
	return &fakeDataSource{name: name, props: props, pingErr: f.pingErr[name], journal: f.journal}, nil
}
