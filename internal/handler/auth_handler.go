// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/blogman/internal/auth"
	"github.com/hitoshi/blogman/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// SignUp はアカウントを作成し、そのままログインする。
	SignUp(ctx context.Context, input auth.SignUpInput) (*model.User, error)
	// Login はメールアドレスとパスワードでログインする。
	Login(ctx context.Context, email, password string) (*model.User, error)
	// Logout はリモートの全セッションを破棄する。
	Logout(ctx context.Context) error
	// UpdateName は表示名（姓・名）を更新する。
	UpdateName(ctx context.Context, firstname, lastname string) (*model.User, error)
	// GetPreferences はアカウント設定を取得する。
	GetPreferences(ctx context.Context) (*model.Preferences, error)
	// UpdatePreferences はアカウント設定を更新する。
	UpdatePreferences(ctx context.Context, prefs model.Preferences) (*model.User, error)
	// UpdatePassword はパスワードを変更する。
	UpdatePassword(ctx context.Context, newPassword, oldPassword string) error
	// SendRecovery はパスワード再設定メールを送信する。
	SendRecovery(ctx context.Context, email string) error
	// ConfirmRecovery は再設定トークンで新パスワードを確定する。
	ConfirmRecovery(ctx context.Context, userID, secret, password string) error
	// OAuthLoginURL はOAuthプロバイダのログインURLを返す。
	OAuthLoginURL(provider string) string
}

// SessionSource は現在のログイン状態の参照を定義する。
// store.SessionStoreが実装する。
type SessionSource interface {
	Authenticated() bool
	User() *model.User
}

// CaptureStarter はOAuth復帰後のセッション捕捉の起動を定義する。
// auth.Captureが実装する。
type CaptureStarter interface {
	Start()
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	session SessionSource
	capture CaptureStarter
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, session SessionSource, capture CaptureStarter) *AuthHandler {
	return &AuthHandler{
		service: service,
		session: session,
		capture: capture,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
	Birthdate string `json:"birthdate"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// updateNameRequest は表示名更新リクエストのボディ。
type updateNameRequest struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// updatePasswordRequest はパスワード変更リクエストのボディ。
type updatePasswordRequest struct {
	Password    string `json:"password"`
	OldPassword string `json:"old_password"`
}

// recoveryRequest はパスワード再設定メール送信リクエストのボディ。
type recoveryRequest struct {
	Email string `json:"email"`
}

// confirmRecoveryRequest は再設定確定リクエストのボディ。
type confirmRecoveryRequest struct {
	UserID   string `json:"user_id"`
	Secret   string `json:"secret"`
	Password string `json:"password"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
	Birthdate string `json:"birthdate"`
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Firstname: user.Prefs.Firstname,
		Lastname:  user.Prefs.Lastname,
		Phone:     user.Prefs.Phone,
		Birthdate: user.Prefs.Birthdate,
	}
}

// SignUp はアカウント作成を処理する。
// POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Email:     req.Email,
		Password:  req.Password,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Phone:     req.Phone,
		Birthdate: req.Birthdate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Login はメールアドレスとパスワードでのログインを処理する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスとパスワードは必須です"))
		return
	}

	user, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Logout はログアウトを処理する。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.session.User()
	if !h.session.Authenticated() || user == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNotAuthenticatedError())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// UpdateName は表示名の更新を処理する。
// PUT /api/auth/name
func (h *AuthHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	var req updateNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Firstname == "" || req.Lastname == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("姓と名は必須です"))
		return
	}

	user, err := h.service.UpdateName(r.Context(), req.Firstname, req.Lastname)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// GetPreferences はアカウント設定を返す。
// GET /api/auth/prefs
func (h *AuthHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.service.GetPreferences(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prefs)
}

// UpdatePreferences はアカウント設定の更新を処理する。
// PUT /api/auth/prefs
func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs model.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	user, err := h.service.UpdatePreferences(r.Context(), prefs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// UpdatePassword はパスワード変更を処理する。
// PUT /api/auth/password
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.UpdatePassword(r.Context(), req.Password, req.OldPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendRecovery はパスワード再設定メールの送信を処理する。
// POST /api/auth/recovery
func (h *AuthHandler) SendRecovery(w http.ResponseWriter, r *http.Request) {
	var req recoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Email == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスは必須です"))
		return
	}

	if err := h.service.SendRecovery(r.Context(), req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// ConfirmRecovery は再設定トークンでのパスワード確定を処理する。
// PUT /api/auth/recovery
func (h *AuthHandler) ConfirmRecovery(w http.ResponseWriter, r *http.Request) {
	var req confirmRecoveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.UserID == "" || req.Secret == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("user_id・secret・passwordは必須です"))
		return
	}

	if err := h.service.ConfirmRecovery(r.Context(), req.UserID, req.Secret, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// OAuthLogin はGoogle OAuthフローを開始する。
// プロバイダのログイン画面へリダイレクトし、認証後はBaseURL配下に戻される。
// GET /auth/oauth/google
func (h *AuthHandler) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	url := h.service.OAuthLoginURL("google")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// LoginPage はログインページの表示を処理する。
// OAuthフローからの戻り先でもあるため、表示と同時にセッション捕捉を起動する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.capture.Start()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"authenticated": h.session.Authenticated(),
	})
}

// SignupPage はサインアップページの表示を処理する。
// GET /signup
func (h *AuthHandler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.capture.Start()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{
		"authenticated": h.session.Authenticated(),
	})
}

// writeInvalidRequestBody はリクエストボディ解析失敗の定型エラーを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}
