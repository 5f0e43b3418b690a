package livelocation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// 送信規律のデフォルト値。
const (
	// DefaultMinSendGap はフィックス送信の最小間隔。
	DefaultMinSendGap = 1200 * time.Millisecond
	// DefaultMaxAccuracyM はサーバーに送信する精度の上限（メートル）。
	// これを超えるフィックスはローカル状態の更新のみに使われる。
	DefaultMaxAccuracyM = 1500.0
)

// Position は端末から読み取った1つの位置。
type Position struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64 // メートル単位。取得できない端末ではnil
	Heading   *float64
	Speed     *float64
	ReadAt    time.Time
}

// PositionSource は端末の位置取得を抽象化する。
type PositionSource interface {
	// Current は単発の高精度読み取りを行う。
	Current(ctx context.Context) (Position, error)

	// Watch は連続監視を開始し、位置更新をposで通知する。
	// 致命的なエラーが発生した場合はerrsに1件送って監視を終える。
	// 両チャネルはctxのキャンセルでクローズされる。
	Watch(ctx context.Context) (pos <-chan Position, errs <-chan error)
}

// FixSender はサーバーへの送信を抽象化する。
type FixSender interface {
	// SendFix はフィックスをサーバーに送信する。
	SendFix(ctx context.Context, pos Position) error
	// NotifyStop は共有停止をサーバーに通知する。
	NotifyStop(ctx context.Context) error
}

// PublisherConfig はPublisherの設定。ゼロ値の項目はデフォルトが使われる。
type PublisherConfig struct {
	MinSendGap   time.Duration
	MaxAccuracyM float64
	// OnFatal は監視の致命的エラーで共有が終了したときに呼ばれる。
	OnFatal func(error)
}

// Publisher は位置共有の送信側の規律を実装する。
//
// 状態は idle → sharing → idle の2状態。Startで即時に1回読み取り、
// 以後は連続監視のフィックスを送信する。規律は次の通り:
//   - 精度がMaxAccuracyMを超えるフィックスはローカル状態のみ更新し送信しない
//   - 送信はMinSendGap以上の間隔に制限され、待機中に来た新しいフィックスは
//     古いものを置き換える（最新のみ送信）
//   - 送信は常に1件ずつ。失敗はログに残すだけで、次のフィックスが自然な再送になる
type Publisher struct {
	source PositionSource
	sender FixSender
	config PublisherConfig

	mu      sync.Mutex
	sharing bool
	cancel  context.CancelFunc
	done    chan struct{}
	last    *Position // 直近の読み取り（送信ゲートに関係なく更新される）
}

// NewPublisher はPublisherを生成する。
func NewPublisher(source PositionSource, sender FixSender, config PublisherConfig) *Publisher {
	if config.MinSendGap <= 0 {
		config.MinSendGap = DefaultMinSendGap
	}
	if config.MaxAccuracyM <= 0 {
		config.MaxAccuracyM = DefaultMaxAccuracyM
	}
	return &Publisher{
		source: source,
		sender: sender,
		config: config,
	}
}

// Sharing は現在共有中かを返す。
func (p *Publisher) Sharing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sharing
}

// LastPosition は直近に読み取った位置を返す。共有開始前はnil。
// 送信ゲートで弾かれたフィックスも反映される。
func (p *Publisher) LastPosition() *Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.last == nil {
		return nil
	}
	cp := *p.last
	return &cp
}

// Start は位置共有を開始する。既に共有中の場合はエラーを返す。
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sharing {
		return fmt.Errorf("already sharing")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.sharing = true
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx, cancel)

	return nil
}

// Stop は位置共有を停止する。監視を止め、サーバーにベストエフォートで
// 停止を通知する。通知の失敗は握りつぶす。共有していない場合は何もしない。
func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.sharing {
		p.mu.Unlock()
		return
	}
	cancel, done := p.cancel, p.done
	p.sharing = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	<-done

	// 元のctxは既にキャンセルされているため通知用に短命のctxを使う
	notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer notifyCancel()
	if err := p.sender.NotifyStop(notifyCtx); err != nil {
		slog.Warn("failed to notify stop", slog.String("error", err.Error()))
	}
}

// run は共有セッションの本体。
// 致命的エラーで自発終了する場合もあるため、終了時に必ずcancelを呼び、
// 送信ループを道連れにする。
func (p *Publisher) run(ctx context.Context, cancel context.CancelFunc) {
	defer close(p.done)

	mailbox := make(chan Position, 1)
	sendDone := make(chan struct{})
	go p.sendLoop(ctx, mailbox, sendDone)
	defer func() {
		cancel()
		<-sendDone
	}()

	// 開始直後に1回読み取る
	if pos, err := p.source.Current(ctx); err != nil {
		slog.Warn("initial position read failed", slog.String("error", err.Error()))
	} else {
		p.observe(pos, mailbox)
	}

	positions, errs := p.source.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			return

		case pos, ok := <-positions:
			if !ok {
				return
			}
			p.observe(pos, mailbox)

		case err, ok := <-errs:
			if !ok {
				continue
			}
			// 致命的エラー: セッションを終了し、呼び出し側に警告を渡す
			slog.Warn("position watch failed", slog.String("error", err.Error()))
			p.mu.Lock()
			p.sharing = false
			p.mu.Unlock()
			if p.config.OnFatal != nil {
				p.config.OnFatal(err)
			}
			return
		}
	}
}

// observe は読み取った位置をローカル状態に反映し、精度ゲートを通過した
// フィックスだけを送信キューに積む。キューの古いフィックスは置き換えられる。
func (p *Publisher) observe(pos Position, mailbox chan Position) {
	p.mu.Lock()
	cp := pos
	p.last = &cp
	p.mu.Unlock()

	if pos.Accuracy != nil && *pos.Accuracy > p.config.MaxAccuracyM {
		return
	}

	for {
		select {
		case mailbox <- pos:
			return
		default:
			// 送信待ちのフィックスを捨てて最新を入れる
			select {
			case <-mailbox:
			default:
			}
		}
	}
}

// sendLoop はフィックスを1件ずつ、最小間隔を守って送信する。
// レート待ちの間に届いた新しいフィックスが送信対象を置き換える。
func (p *Publisher) sendLoop(ctx context.Context, mailbox <-chan Position, done chan<- struct{}) {
	defer close(done)

	limiter := rate.NewLimiter(rate.Every(p.config.MinSendGap), 1)
	for {
		select {
		case <-ctx.Done():
			return
		case pos := <-mailbox:
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			// レート待ちの間に新しいフィックスが来ていれば差し替える
			select {
			case newer := <-mailbox:
				pos = newer
			default:
			}
			if err := p.sender.SendFix(ctx, pos); err != nil {
				// 次のフィックスが自然な再送になるため、ここでは記録のみ
				slog.Warn("failed to send location fix", slog.String("error", err.Error()))
			}
		}
	}
}
