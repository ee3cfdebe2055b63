package auth

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/store"
)

// SessionProber は現在のセッションに紐づくアカウントレコードの取得を定義する。
// 未認証の場合は(nil, nil)を返す。
type SessionProber interface {
	Get(ctx context.Context) (*model.User, error)
}

// Bootstrapper は起動時に1回だけセッション状態を解決する。
// 解決が完了するまでReadyチャネルは閉じられず、
// APIの提供開始はこの完了を待ってから行う。
type Bootstrapper struct {
	prober  SessionProber
	session *store.SessionStore
	logger  *slog.Logger

	once sync.Once
	done chan struct{}
}

// NewBootstrapper はBootstrapperを生成する。
func NewBootstrapper(prober SessionProber, session *store.SessionStore, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{
		prober:  prober,
		session: session,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Run はセッションの照会結果をセッションストアへ反映する。
// アカウントレコードが得られればログイン状態、nilまたはエラーなら
// ログアウト状態で確定する。どの経路でもReadyは必ず1回だけ解放される。
// 2回目以降の呼び出しは何もしない。
func (b *Bootstrapper) Run(ctx context.Context) {
	b.once.Do(func() {
		defer close(b.done)

		user, err := b.prober.Get(ctx)
		if err != nil {
			b.logger.Error("起動時のセッション照会に失敗しました",
				slog.String("error", err.Error()),
			)
			b.session.Logout()
			return
		}

		if user == nil {
			b.logger.Info("既存セッションなしで起動します")
			b.session.Logout()
			return
		}

		b.session.Login(user)
		b.logger.Info("既存セッションを復元しました",
			slog.String("user_id", user.ID),
		)
	})
}

// Ready は起動時のセッション解決が完了すると閉じられるチャネルを返す。
func (b *Bootstrapper) Ready() <-chan struct{} {
	return b.done
}
