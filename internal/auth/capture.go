package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/store"
)

// Capture はログイン・サインアップ画面の表示を合図に、OAuthリダイレクトで
// 確立されたかもしれないセッションを拾い上げる。
// リダイレクト直後はセッションの反映が遅れることがあるため、
// 固定の短い遅延を置いてから1回だけ照会する。
type Capture struct {
	prober  SessionProber
	session *store.SessionStore
	logger  *slog.Logger
	delay   time.Duration
}

// NewCapture はCaptureを生成する。
func NewCapture(prober SessionProber, session *store.SessionStore, logger *slog.Logger, delay time.Duration) *Capture {
	return &Capture{
		prober:  prober,
		session: session,
		logger:  logger,
		delay:   delay,
	}
}

// Probe は遅延後にセッションを照会し、アカウントレコードが得られたら
// OAuthセッションとしてセッションストアへ書き込む。
// 照会で得られるのはアカウントレコードのみのため、レコードIDを
// そのままセッションハンドルとして包んで保存する。
// 失敗はログに残して握りつぶす（画面表示のたびに走る投機的な照会のため）。
// 手動ログインと競合した場合は後勝ちで上書きされる。
func (c *Capture) Probe(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(c.delay):
	}

	user, err := c.prober.Get(ctx)
	if err != nil {
		c.logger.Warn("OAuthセッションの照会に失敗しました",
			slog.String("error", err.Error()),
		)
		return
	}
	if user == nil {
		return
	}

	session := &model.Session{
		ID:       user.ID,
		UserID:   user.ID,
		Provider: "google",
	}
	c.session.SetOAuthSession(user, session, "google")
	c.logger.Info("OAuthセッションを捕捉しました",
		slog.String("user_id", user.ID),
	)
}

// Start はProbeをバックグラウンドで起動する。
// 画面遷移によるキャンセルは行わない仕様のため、リクエストのコンテキスト
// ではなく独立したコンテキストで走らせる。
func (c *Capture) Start() {
	go c.Probe(context.Background())
}
