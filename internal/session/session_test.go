// Copyright (c) 2026 Tapscan Team
// Tapscan - secure element scan orchestration
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/toeirei/tapscan/internal/card"
	"github.com/toeirei/tapscan/internal/logging"
)

type stubSession struct {
	resp any
	err  error
}

func (s stubSession) Card() (card.Card, bool) { return card.Card{ID: "AB01"}, true }

func (s stubSession) Send(context.Context, Command) (any, error) { return s.resp, s.err }

func TestStatusError_MapsSentinels(t *testing.T) {
	cases := []struct {
		sw       uint16
		notFound bool
		noIns    bool
	}{
		{SWFileNotFound, true, false},
		{SWInsNotSupported, false, true},
		{0x6982, false, false},
	}
	for _, c := range cases {
		err := fmt.Errorf("read: %w", &StatusError{SW: c.sw})
		if errors.Is(err, ErrFileNotFound) != c.notFound || errors.Is(err, ErrInsNotSupported) != c.noIns {
			t.Fatalf("sw %04X: unexpected sentinel mapping", c.sw)
		}
	}
}

func TestSend_TypedResponse(t *testing.T) {
	ctx := context.Background()
	got, err := Send[FileResponse](ctx, stubSession{resp: FileResponse{Data: []byte{1}}}, ReadFile{FileName: "x"})
	if err != nil || !bytes.Equal(got.Data, []byte{1}) {
		t.Fatalf("Send = %+v, %v", got, err)
	}

	_, err = Send[FileResponse](ctx, stubSession{resp: IssuerDataResponse{}}, ReadFile{})
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected ErrUnexpectedResponse, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := Send[FileResponse](ctx, stubSession{err: boom}, ReadFile{}); !errors.Is(err, boom) {
		t.Fatalf("expected transport error to pass through, got %v", err)
	}
}

func TestWithLogging_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.L
	logging.L = clog.New(&buf)
	defer func() { logging.L = prev }()

	s := WithLogging(stubSession{err: &StatusError{SW: 0x6982}})
	if c, ok := s.Card(); !ok || c.ID != "AB01" {
		t.Fatalf("Card not forwarded")
	}
	_, err := s.Send(context.Background(), ReadFile{FileName: card.NoteFileName})
	var se *StatusError
	if !errors.As(err, &se) || se.SW != 0x6982 {
		t.Fatalf("error not forwarded: %v", err)
	}
	if !strings.Contains(buf.String(), "read_file failed") {
		t.Fatalf("failure not logged: %s", buf.String())
	}
}

func TestWithLogging_ExpectedAnswersStayAtDebug(t *testing.T) {
	for _, sw := range []uint16{SWFileNotFound, SWInsNotSupported} {
		var buf bytes.Buffer
		prev := logging.L
		logging.L = clog.New(&buf)

		_, err := WithLogging(stubSession{err: &StatusError{SW: sw}}).Send(context.Background(), ReadFile{FileName: card.NoteFileName})
		logging.L = prev
		if err == nil {
			t.Fatalf("%04X: error not forwarded", sw)
		}
		if buf.Len() != 0 {
			t.Fatalf("%04X logged above debug: %s", sw, buf.String())
		}
	}
}
