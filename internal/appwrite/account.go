package appwrite

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
)

const serviceAccount = "account"

// Account はアカウントサービスへのリクエストを提供する。
type Account struct {
	c *Client
}

// NewAccount はAccountを生成する。
func NewAccount(c *Client) *Account {
	return &Account{c: c}
}

// Create は新規アカウントを作成する。
// アカウントIDはクライアント側で採番する。
func (a *Account) Create(ctx context.Context, email, password, name string) (*model.User, error) {
	body := map[string]string{
		"userId":   uuid.New().String(),
		"email":    email,
		"password": password,
		"name":     name,
	}
	var user model.User
	if err := a.c.doJSON(ctx, serviceAccount, "create", http.MethodPost, "/v1/account", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateEmailSession はメールアドレスとパスワードでセッションを確立する。
// 成功時はセッションシークレットをClientへ引き継ぎ、以降のリクエストを認証済みにする。
func (a *Account) CreateEmailSession(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var session model.Session
	if err := a.c.doJSON(ctx, serviceAccount, "create_session", http.MethodPost, "/v1/account/sessions/email", body, &session); err != nil {
		return nil, err
	}
	a.c.SetSession(session.Secret)
	return &session, nil
}

// Get は現在のセッションに紐づくアカウントレコードを取得する。
// 未認証（401）の場合はエラーではなく(nil, nil)を返す。
// セッション有無の判定に使う呼び出しのため、未認証は正常系として扱う。
func (a *Account) Get(ctx context.Context) (*model.User, error) {
	var user model.User
	err := a.c.doJSON(ctx, serviceAccount, "get", http.MethodGet, "/v1/account", nil, &user)
	if err != nil {
		if platformErr, ok := err.(*Error); ok && platformErr.IsUnauthorized() {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// DeleteSessions は現在のアカウントの全セッションを削除する。
// 成功時はClientのセッションシークレットもクリアする。
func (a *Account) DeleteSessions(ctx context.Context) error {
	if err := a.c.doJSON(ctx, serviceAccount, "delete_sessions", http.MethodDelete, "/v1/account/sessions", nil, nil); err != nil {
		return err
	}
	a.c.SetSession("")
	return nil
}

// UpdateName はアカウントの表示名を更新する。
func (a *Account) UpdateName(ctx context.Context, name string) (*model.User, error) {
	body := map[string]string{"name": name}
	var user model.User
	if err := a.c.doJSON(ctx, serviceAccount, "update_name", http.MethodPatch, "/v1/account/name", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePrefs はアカウントの設定バッグを更新する。
// 設定バッグは全置換であり、渡さなかったキーは失われる。
func (a *Account) UpdatePrefs(ctx context.Context, prefs model.Preferences) (*model.User, error) {
	body := map[string]model.Preferences{"prefs": prefs}
	var user model.User
	if err := a.c.doJSON(ctx, serviceAccount, "update_prefs", http.MethodPatch, "/v1/account/prefs", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetPrefs はアカウントの設定バッグを取得する。
func (a *Account) GetPrefs(ctx context.Context) (*model.Preferences, error) {
	var prefs model.Preferences
	if err := a.c.doJSON(ctx, serviceAccount, "get_prefs", http.MethodGet, "/v1/account/prefs", nil, &prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

// UpdatePassword はパスワードを更新する。現在のパスワードの確認を要求する。
func (a *Account) UpdatePassword(ctx context.Context, newPassword, oldPassword string) (*model.User, error) {
	body := map[string]string{
		"password":    newPassword,
		"oldPassword": oldPassword,
	}
	var user model.User
	if err := a.c.doJSON(ctx, serviceAccount, "update_password", http.MethodPatch, "/v1/account/password", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateRecovery はパスワード再設定メールの送信を要求する。
// redirectURLは再設定リンクの遷移先。
func (a *Account) CreateRecovery(ctx context.Context, email, redirectURL string) error {
	body := map[string]string{
		"email": email,
		"url":   redirectURL,
	}
	return a.c.doJSON(ctx, serviceAccount, "create_recovery", http.MethodPost, "/v1/account/recovery", body, nil)
}

// UpdateRecovery は再設定リンクに含まれるシークレットで新パスワードを確定する。
func (a *Account) UpdateRecovery(ctx context.Context, userID, secret, password string) error {
	body := map[string]string{
		"userId":   userID,
		"secret":   secret,
		"password": password,
	}
	return a.c.doJSON(ctx, serviceAccount, "update_recovery", http.MethodPut, "/v1/account/recovery", body, nil)
}

// OAuthURL は外部IDプロバイダーへのリダイレクトURLを生成する。
// ユーザーをこのURLへ誘導すると、認証完了後にsuccess/failureへ戻される。
func (a *Account) OAuthURL(provider, successURL, failureURL string) string {
	params := url.Values{
		"project": {a.c.ProjectID()},
		"success": {successURL},
		"failure": {failureURL},
	}
	return a.c.Endpoint() + "/v1/account/sessions/oauth2/" + url.PathEscape(provider) + "?" + params.Encode()
}
