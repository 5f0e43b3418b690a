package livelocation

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ポーリング間隔の許容範囲。範囲外の指定はこの範囲に丸められる。
const (
	MinPollInterval = 1 * time.Second
	MaxPollInterval = 15 * time.Second
)

// Fetcher はライブ位置一覧の取得を抽象化する。
type Fetcher interface {
	FetchFixes(ctx context.Context) ([]Entry, error)
}

// Poller はライブ位置の表示側の規律を実装する。
//
// 指定間隔（[1s, 15s]に丸める）でポーリングし、応答のたびに表示中の
// 集合全体を置き換える。閲覧者自身のエントリにはIsMeを立てる。
// Stop後に完了した取得結果は破棄される。
type Poller struct {
	fetcher  Fetcher
	viewerID string
	interval time.Duration
	onUpdate func([]Entry)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	entries []Entry
}

// NewPoller はPollerを生成する。intervalは[1s, 15s]に丸められる。
// onUpdateは取得のたびに置き換え後の集合で呼ばれる。
func NewPoller(fetcher Fetcher, viewerID string, interval time.Duration, onUpdate func([]Entry)) *Poller {
	if interval < MinPollInterval {
		interval = MinPollInterval
	}
	if interval > MaxPollInterval {
		interval = MaxPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		viewerID: viewerID,
		interval: interval,
		onUpdate: onUpdate,
	}
}

// Interval は丸め後のポーリング間隔を返す。
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Entries は直近の取得結果を返す。
func (p *Poller) Entries() []Entry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Start はポーリングを開始する。即時に1回取得し、以後は間隔ごとに取得する。
// 既に開始済みの場合は何もしない。
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx)
}

// Stop はポーリングを停止する。進行中の取得の結果は破棄される。
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll は1回の取得を行い、成功時に集合全体を置き換える。
func (p *Poller) poll(ctx context.Context) {
	entries, err := p.fetcher.FetchFixes(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("failed to fetch location fixes", slog.String("error", err.Error()))
		}
		return
	}

	// Stop後に完了した取得は反映しない
	if ctx.Err() != nil {
		return
	}

	for i := range entries {
		entries[i].IsMe = entries[i].Fix.UserID == p.viewerID
	}

	p.mu.Lock()
	p.entries = entries
	updated := make([]Entry, len(entries))
	copy(updated, entries)
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(updated)
	}
}
