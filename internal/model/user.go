// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// Passwordは登録時に送信された値をそのまま保持する（平文保存、DESIGN.md参照）。
// APIレスポンスには決して含めないこと。
type User struct {
	ID        string
	Email     string
	Password  string
	FullName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultUserRole は登録時にロールが未指定の場合のデフォルト値。
const DefaultUserRole = "developer"
