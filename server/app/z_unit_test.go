// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

type fakeComp struct {
	name    string
	runErr  error
	stop    chan struct{}
	once    sync.Once
	mu      *sync.Mutex
	order   *[]string
	downErr error
}

func newFake(name string, mu *sync.Mutex, order *[]string) *fakeComp {
	return &fakeComp{name: name, stop: make(chan struct{}), mu: mu, order: order}
}

func (f *fakeComp) Run() error {
	if f.runErr != nil {
		return f.runErr
	}
	<-f.stop
	return http.ErrServerClosed
}

func (f *fakeComp) Shutdown(ctx context.Context) error {
	f.once.Do(func() { close(f.stop) })
	f.mu.Lock()
	*f.order = append(*f.order, f.name)
	f.mu.Unlock()
	return f.downErr
}

func TestRunContextShutdownReverseOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	a := NewWith(newFake("a", &mu, &order), newFake("b", &mu, &order))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.RunContext(ctx); err != nil {
		t.Fatalf("expected clean stop, got %v", err)
	}
	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("shutdown order = %v, want [b a]", order)
	}
}

func TestRunContextComponentError(t *testing.T) {
	var mu sync.Mutex
	var order []string
	boom := errors.New("listen failed")
	bad := newFake("bad", &mu, &order)
	bad.runErr = boom
	good := newFake("good", &mu, &order)
	a := NewWith(good, bad)
	err := a.RunContext(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected run error, got %v", err)
	}
	if len(order) != 2 {
		t.Fatalf("every component should be shut down, got %v", order)
	}
}

func TestShutdownErrorsJoined(t *testing.T) {
	var mu sync.Mutex
	var order []string
	c := newFake("c", &mu, &order)
	c.downErr = errors.New("drain timeout")
	a := NewWith(c)
	a.SetShutdownTimeout(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.RunContext(ctx); !errors.Is(err, c.downErr) {
		t.Fatalf("expected shutdown error, got %v", err)
	}
}

func TestEmptyApp(t *testing.T) {
	if err := New().RunContext(context.Background()); err != nil {
		t.Fatalf("empty app: %v", err)
	}
}
