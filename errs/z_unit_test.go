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

package errs

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrapKeepsLevel(t *testing.T) {
	base := NewWarn("points must > 0")
	w := Wrap(base, "setting invalid")
	if w.ErrLv != Warn {
		t.Fatalf("expected warn level kept, got %s", w.ErrLv)
	}
	if !errors.Is(w, base) {
		t.Fatalf("expected errors.Is to reach cause")
	}
}

func TestWrapForeignIsFatal(t *testing.T) {
	w := WrapWithExtra(io.ErrShortWrite, "write batch failed", "iter=3")
	if !Is(w, Fatal) {
		t.Fatalf("expected fatal for foreign cause")
	}
	msg := w.Error()
	for _, part := range []string{"errlv=fatal", "write batch failed", "iter=3", "short write"} {
		if !strings.Contains(msg, part) {
			t.Fatalf("message %q missing %q", msg, part)
		}
	}
}

func TestAsErrOnPlainError(t *testing.T) {
	if _, ok := AsErr(io.EOF); ok {
		t.Fatalf("plain error should not be *E")
	}
	if Is(nil, Warn) {
		t.Fatalf("nil error has no level")
	}
}
