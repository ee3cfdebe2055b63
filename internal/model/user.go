// Package model はドメインモデルを定義する。
package model

import "time"

// Preferences はアカウントに紐づく設定バッグを表す。
// リモートアカウントサービスのprefsフィールドに対応し、
// 氏名・電話番号・生年月日を保持する。
type Preferences struct {
	Firstname string `json:"Firstname"`
	Lastname  string `json:"Lastname"`
	Phone     string `json:"phone"`
	Birthdate string `json:"birthdate"` // DD-MM-YYYY形式
}

// User はリモートアカウントサービスが保持するユーザーレコードを表す。
// このレイヤーはレコードを所有せず、取得結果のスナップショットとして扱う。
type User struct {
	ID        string      `json:"$id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Prefs     Preferences `json:"prefs"`
	CreatedAt time.Time   `json:"$createdAt"`
}

// Session はリモートアカウントサービスが発行したセッションを表す。
// OAuthリダイレクト経由で確立されたセッションの識別に使用する。
// Secretは後続リクエストの認証に使うセッションシークレット。
type Session struct {
	ID       string `json:"$id"`
	UserID   string `json:"userId"`
	Provider string `json:"provider"`
	Secret   string `json:"secret"`
}
