package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"CoinSentinel/internal/ledger"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/notifier"
	"CoinSentinel/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTicker struct {
	ticks int
	snap  model.Snapshot
}

func (s *stubTicker) Tick(context.Context) model.Snapshot {
	s.ticks++
	s.snap.SeriesLen = s.ticks
	return s.snap
}

func (s *stubTicker) Snapshot() model.Snapshot { return s.snap }

type stubPublisher struct {
	name string
	got  []model.Snapshot
	err  error
}

func (p *stubPublisher) Name() string { return p.name }

func (p *stubPublisher) Publish(_ context.Context, s model.Snapshot) error {
	p.got = append(p.got, s)
	return p.err
}

func TestTickFansOutToPublishers(t *testing.T) {
	ctx := context.Background()
	tk := &stubTicker{}
	failing := &stubPublisher{name: "broken", err: errors.New("unreachable")}
	ok := &stubPublisher{name: "ok"}

	s := NewScheduler(ctx, tk, nil, nil, failing, ok)
	s.RunTickNow()
	snap := s.RunTickNow()

	assert.Equal(t, 2, snap.SeriesLen)
	assert.Len(t, failing.got, 2)
	assert.Len(t, ok.got, 2, "a failing publisher must not stop the others")
}

func TestRegisterAllRejectsBadSpec(t *testing.T) {
	s := NewScheduler(context.Background(), &stubTicker{}, nil, nil)
	assert.Error(t, s.RegisterAll("not a cron", "0 0 22 * * *"))
	assert.NoError(t, s.RegisterAll("@every 5s", "0 0 22 * * *"))
	assert.Len(t, s.Cron.Entries(), 2)
}

func TestDailySummarySendsWallet(t *testing.T) {
	ctx := context.Background()
	var body atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg map[string]string
		_ = json.NewDecoder(r.Body).Decode(&msg)
		body.Store(msg["text"])
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := notifier.NewTelegramNotifier("T", "1", "")
	tn.APIBase = srv.URL

	m, err := ledger.NewManager(ctx, store.NewMemoryStore())
	require.NoError(t, err)
	_, err = m.Deposit(ctx, decimal.NewFromInt(250))
	require.NoError(t, err)

	tk := &stubTicker{snap: model.Snapshot{HasPrice: true, Price: decimal.NewFromInt(30000)}}
	s := NewScheduler(ctx, tk, m, tn)
	s.RunDailyNow()

	sent, _ := body.Load().(string)
	assert.Contains(t, sent, "Daily summary")
	assert.Contains(t, sent, "Cash: €250.00")
}
