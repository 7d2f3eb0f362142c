package pagination

import (
	"encoding/base64"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("expected buffer of one, got %d", got)
	}
}

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 3, 2, 10, 0, 0, 123456789, time.UTC), ID: uuid.New()}
	encoded := EncodeCursor(in)
	if url.QueryEscape(encoded) != encoded {
		t.Fatalf("cursor %q needs escaping", encoded)
	}

	out, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !out.CreatedAt.Equal(in.CreatedAt) || out.ID != in.ID {
		t.Fatalf("round trip mismatch: %+v vs %+v", out, in)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor("  "); err != nil || c != nil {
		t.Fatalf("blank cursor should mean first page, got %v %v", c, err)
	}
	for _, value := range []string{"%%%", encodeRaw("no-separator"), encodeRaw("yesterday|" + uuid.NewString()), encodeRaw("2026-01-01T00:00:00Z|nope")} {
		if _, err := ParseCursor(value); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor for %q, got %v", value, err)
		}
	}
}

func TestTrim(t *testing.T) {
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	rows := make([]Cursor, 3)
	for i := range rows {
		rows[i] = Cursor{CreatedAt: base.Add(-time.Duration(i) * time.Minute), ID: uuid.New()}
	}
	identity := func(c Cursor) Cursor { return c }

	page, next := Trim(rows, 2, identity)
	if len(page) != 2 || next == nil || next.ID != rows[1].ID {
		t.Fatalf("expected two rows and a cursor at the second, got %d %+v", len(page), next)
	}

	page, next = Trim(rows[:2], 2, identity)
	if len(page) != 2 || next != nil {
		t.Fatalf("expected final page without cursor")
	}
}

func encodeRaw(payload string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}
