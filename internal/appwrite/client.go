// Package appwrite はリモートプラットフォーム（Appwrite互換REST API）への
// 薄いリクエストレイヤーを提供する。アカウント・ドキュメント・ブロブの
// 各サービスはこのパッケージのClientを共有する。
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Config はClientの設定。
type Config struct {
	// Endpoint はプラットフォームAPIのベースURL（末尾スラッシュなし）。
	Endpoint string
	// ProjectID は全リクエストのX-Appwrite-Projectヘッダーに付与される。
	ProjectID string
	// SessionSecret は起動時に引き継ぐセッションシークレット。空なら未認証。
	SessionSecret string
	// Timeout は1リクエストあたりのタイムアウト。
	Timeout time.Duration
}

// MetricsRecorder はプラットフォーム呼び出しのメトリクスを記録する。
// nilを渡した場合は記録しない。
type MetricsRecorder interface {
	RecordPlatformRequest(service, operation, status string)
	RecordPlatformLatency(service string, seconds float64)
}

// Error はプラットフォームAPIが返したエラーレスポンスを表す。
type Error struct {
	StatusCode int    // HTTPステータスコード
	Type       string // プラットフォーム側のエラー種別（例: user_already_exists）
	Message    string // プラットフォーム側のエラーメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	return fmt.Sprintf("platform error %d (%s): %s", e.StatusCode, e.Type, e.Message)
}

// IsNotFound は404エラーかどうかを返す。
func (e *Error) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized は401エラーかどうかを返す。
func (e *Error) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsConflict は409エラーかどうかを返す。
func (e *Error) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// errorEnvelope はプラットフォームのエラーレスポンスボディ。
type errorEnvelope struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// Client はプラットフォームAPIのHTTPクライアント。
// セッションシークレットをmutexで保護し、ログイン・ログアウトによる
// 差し替えを並行リクエストと安全に共存させる。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
	endpoint   string
	projectID  string

	mu      sync.RWMutex
	session string
}

// NewClient はClientの新しいインスタンスを生成する。
// metricsはnil可。
func NewClient(cfg Config, logger *slog.Logger, metrics MetricsRecorder) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		metrics:    metrics,
		endpoint:   cfg.Endpoint,
		projectID:  cfg.ProjectID,
		session:    cfg.SessionSecret,
	}
}

// SetSession は後続リクエストの認証に使うセッションシークレットを設定する。
// 空文字列を渡すと未認証状態に戻る。
func (c *Client) SetSession(secret string) {
	c.mu.Lock()
	c.session = secret
	c.mu.Unlock()
}

// HasSession はセッションシークレットが設定されているかどうかを返す。
func (c *Client) HasSession() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != ""
}

// Endpoint はプラットフォームAPIのベースURLを返す。
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ProjectID はプロジェクトIDを返す。
func (c *Client) ProjectID() string {
	return c.projectID
}

// doJSON はJSONボディ付きリクエストを実行し、成功レスポンスをoutへデコードする。
// bodyがnilの場合はボディなし、outがnilの場合はレスポンスを読み捨てる。
func (c *Client) doJSON(ctx context.Context, service, operation, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, service, operation, out)
}

// do は共通ヘッダーを付与してリクエストを実行する。
// エラーレスポンスはエンベロープ {message, type, code} をパースして*Errorとして返す。
func (c *Client) do(req *http.Request, service, operation string, out any) error {
	req.Header.Set("X-Appwrite-Project", c.projectID)
	c.mu.RLock()
	if c.session != "" {
		req.Header.Set("X-Appwrite-Session", c.session)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordRequest(service, operation, "error", start)
		c.logger.Error("プラットフォームAPIの呼び出しに失敗しました",
			slog.String("service", service),
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("プラットフォームAPIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordRequest(service, operation, "error", start)
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		c.recordRequest(service, operation, strconv.Itoa(resp.StatusCode), start)
		return c.parseError(resp.StatusCode, respBody, service, operation)
	}

	c.recordRequest(service, operation, "ok", start)

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	return nil
}

// parseError はエラーレスポンスを*Errorへマップする。
// エンベロープとして読めないボディでもステータスコードは保持する。
func (c *Client) parseError(statusCode int, body []byte, service, operation string) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		envelope.Message = string(body)
	}

	platformErr := &Error{
		StatusCode: statusCode,
		Type:       envelope.Type,
		Message:    envelope.Message,
	}

	c.logger.Error("プラットフォームAPIがエラーステータスを返しました",
		slog.String("service", service),
		slog.String("operation", operation),
		slog.Int("http_status", statusCode),
		slog.String("error_type", envelope.Type),
	)

	return platformErr
}

func (c *Client) recordRequest(service, operation, status string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordPlatformRequest(service, operation, status)
	c.metrics.RecordPlatformLatency(service, time.Since(start).Seconds())
}
