// Package auth はリモートアカウントサービスに対する認証フローと、
// 起動時のセッション解決・OAuthコールバック捕捉を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/store"
)

// AccountAPI はリモートアカウントサービスへの操作を定義する。
// 実装はinternal/appwriteのAccountが提供する。
type AccountAPI interface {
	Create(ctx context.Context, email, password, name string) (*model.User, error)
	CreateEmailSession(ctx context.Context, email, password string) (*model.Session, error)
	Get(ctx context.Context) (*model.User, error)
	DeleteSessions(ctx context.Context) error
	UpdateName(ctx context.Context, name string) (*model.User, error)
	UpdatePrefs(ctx context.Context, prefs model.Preferences) (*model.User, error)
	GetPrefs(ctx context.Context) (*model.Preferences, error)
	UpdatePassword(ctx context.Context, newPassword, oldPassword string) (*model.User, error)
	CreateRecovery(ctx context.Context, email, redirectURL string) error
	UpdateRecovery(ctx context.Context, userID, secret, password string) error
	OAuthURL(provider, successURL, failureURL string) string
}

// PostCacheClearer はログアウト時に記事キャッシュを連動して空にするための
// 最小インターフェース。PostStoreが実装する。
type PostCacheClearer interface {
	ClearPosts()
}

// SignUpInput はサインアップの入力。
type SignUpInput struct {
	Email     string
	Password  string
	Firstname string
	Lastname  string
	Phone     string
	Birthdate string // DD-MM-YYYY形式
}

// Service は認証に関するビジネスロジックを提供する。
// リモート操作が成功した後にのみセッションストアを更新する。
type Service struct {
	account AccountAPI
	session *store.SessionStore
	posts   PostCacheClearer
	baseURL string
	logger  *slog.Logger
}

// NewService はServiceを生成する。
// baseURLはパスワード再設定リンクの遷移先の組み立てに使う。
func NewService(account AccountAPI, session *store.SessionStore, posts PostCacheClearer, baseURL string, logger *slog.Logger) *Service {
	return &Service{
		account: account,
		session: session,
		posts:   posts,
		baseURL: baseURL,
		logger:  logger,
	}
}

// SignUp は新規アカウントを作成してログイン状態にする。
// アカウント作成 → セッション確立 → 設定バッグ保存 → レコード再取得 →
// セッションストア更新の順で進み、途中で失敗したらそこで止まる。
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*model.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードは必須です")
	}

	name := input.Firstname + " " + input.Lastname

	if _, err := s.account.Create(ctx, input.Email, input.Password, name); err != nil {
		if platformConflict(err) {
			return nil, model.NewAccountExistsError(input.Email)
		}
		return nil, fmt.Errorf("アカウントの作成に失敗しました: %w", err)
	}

	if _, err := s.account.CreateEmailSession(ctx, input.Email, input.Password); err != nil {
		return nil, fmt.Errorf("サインアップ後のログインに失敗しました: %w", err)
	}

	prefs := model.Preferences{
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
		Phone:     input.Phone,
		Birthdate: input.Birthdate,
	}
	if _, err := s.account.UpdatePrefs(ctx, prefs); err != nil {
		return nil, fmt.Errorf("アカウント設定の保存に失敗しました: %w", err)
	}

	// 設定保存後のレコードを取り直してストアへ反映する
	user, err := s.account.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	s.session.Login(user)
	s.logger.Info("新規ユーザーが登録しました",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login はメールアドレスとパスワードでログインする。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードは必須です")
	}

	if _, err := s.account.CreateEmailSession(ctx, email, password); err != nil {
		if platformUnauthorized(err) {
			return nil, model.NewInvalidCredentialsError()
		}
		return nil, fmt.Errorf("セッションの確立に失敗しました: %w", err)
	}

	user, err := s.account.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	s.session.Login(user)
	s.logger.Info("ユーザーがログインしました", slog.String("user_id", user.ID))
	return user, nil
}

// Logout はリモートの全セッションを削除し、成功した場合のみ
// ローカルのセッションストアと記事キャッシュを空にする。
// リモート削除の失敗時はローカル状態に触れずエラーを返す。
func (s *Service) Logout(ctx context.Context) error {
	if err := s.account.DeleteSessions(ctx); err != nil {
		s.logger.Error("リモートセッションの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("ログアウトに失敗しました: %w", err)
	}

	s.session.Logout()
	s.posts.ClearPosts()
	s.logger.Info("ユーザーがログアウトしました")
	return nil
}

// UpdateName は表示名を氏名から組み立てて更新し、設定バッグも揃えて保存する。
// 更新後のレコードを取り直してセッションストアへ反映する。
func (s *Service) UpdateName(ctx context.Context, firstname, lastname string) (*model.User, error) {
	if firstname == "" && lastname == "" {
		return nil, model.NewValidationError("氏名を入力してください")
	}

	if _, err := s.account.UpdateName(ctx, firstname+" "+lastname); err != nil {
		return nil, fmt.Errorf("表示名の更新に失敗しました: %w", err)
	}

	current, err := s.account.GetPrefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント設定の取得に失敗しました: %w", err)
	}
	current.Firstname = firstname
	current.Lastname = lastname
	if _, err := s.account.UpdatePrefs(ctx, *current); err != nil {
		return nil, fmt.Errorf("アカウント設定の保存に失敗しました: %w", err)
	}

	user, err := s.account.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	s.session.Login(user)
	return user, nil
}

// GetPreferences は設定バッグを取得する。
func (s *Service) GetPreferences(ctx context.Context) (*model.Preferences, error) {
	prefs, err := s.account.GetPrefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウント設定の取得に失敗しました: %w", err)
	}
	return prefs, nil
}

// UpdatePreferences は設定バッグを全置換で更新し、
// 更新後のレコードをセッションストアへ反映する。
func (s *Service) UpdatePreferences(ctx context.Context, prefs model.Preferences) (*model.User, error) {
	if _, err := s.account.UpdatePrefs(ctx, prefs); err != nil {
		return nil, fmt.Errorf("アカウント設定の保存に失敗しました: %w", err)
	}

	user, err := s.account.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("アカウントの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewNotAuthenticatedError()
	}

	s.session.Login(user)
	return user, nil
}

// UpdatePassword はパスワードを更新する。現在のパスワードの確認が必要。
func (s *Service) UpdatePassword(ctx context.Context, newPassword, oldPassword string) error {
	if newPassword == "" || oldPassword == "" {
		return model.NewValidationError("現在のパスワードと新しいパスワードは必須です")
	}

	if _, err := s.account.UpdatePassword(ctx, newPassword, oldPassword); err != nil {
		if platformUnauthorized(err) {
			return model.NewInvalidCredentialsError()
		}
		return fmt.Errorf("パスワードの更新に失敗しました: %w", err)
	}
	return nil
}

// SendRecovery はパスワード再設定メールの送信を依頼する。
// 再設定リンクの遷移先はBASE_URL配下の/reset-passwordに固定する。
func (s *Service) SendRecovery(ctx context.Context, email string) error {
	if email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}

	redirectURL := s.baseURL + "/reset-password"
	if err := s.account.CreateRecovery(ctx, email, redirectURL); err != nil {
		return fmt.Errorf("再設定メールの送信に失敗しました: %w", err)
	}

	s.logger.Info("パスワード再設定メールを送信しました", slog.String("email", email))
	return nil
}

// ConfirmRecovery は再設定リンクのシークレットで新パスワードを確定する。
func (s *Service) ConfirmRecovery(ctx context.Context, userID, secret, password string) error {
	if userID == "" || secret == "" || password == "" {
		return model.NewValidationError("ユーザーID・シークレット・新パスワードは必須です")
	}

	if err := s.account.UpdateRecovery(ctx, userID, secret, password); err != nil {
		return fmt.Errorf("パスワードの再設定に失敗しました: %w", err)
	}
	return nil
}

// OAuthLoginURL は外部IDプロバイダーへのリダイレクトURLを返す。
// 認証成功時はトップへ、失敗時はログイン画面へ戻す。
func (s *Service) OAuthLoginURL(provider string) string {
	return s.account.OAuthURL(provider, s.baseURL+"/", s.baseURL+"/login")
}

// platformConflict はリモートプラットフォームの409エラーかどうかを判定する。
func platformConflict(err error) bool {
	type conflicter interface{ IsConflict() bool }
	if c, ok := err.(conflicter); ok {
		return c.IsConflict()
	}
	return false
}

// platformUnauthorized はリモートプラットフォームの401エラーかどうかを判定する。
func platformUnauthorized(err error) bool {
	type unauthorizeder interface{ IsUnauthorized() bool }
	if u, ok := err.(unauthorizeder); ok {
		return u.IsUnauthorized()
	}
	return false
}
