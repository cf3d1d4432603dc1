package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// トークンの種別。アクセスとリフレッシュで署名シークレットを分けるので、
// 片方をもう片方として誤検証することはできない。
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	//署名不正・壊れている・別シークレットで署名されている
	ErrInvalidToken = errors.New("invalid token")
	//形式は正しいが期限切れ
	ErrTokenExpired = errors.New("token expired")
	//アクセストークンの場所にリフレッシュトークンが来た等
	ErrWrongTokenType = errors.New("wrong token type")
)

type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
}

// HS256でトークンを署名・検証する。状態は持たない。
type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
}

func NewSigner(accessSecret string, refreshSecret string) *Signer {
	return &Signer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}
}

// Sign は {sub, token_type, exp} を署名したコンパクトなトークンを作る。
// リフレッシュトークンにはjtiとしてUUIDを入れる。
// 同一時刻に発行した2本が同じ文字列にならないようにするため。
func (s *Signer) Sign(userID int64, kind Kind, ttl time.Duration, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: string(kind),
	}

	if kind == KindRefresh {
		claims.ID = uuid.NewString()
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(s.secret(kind))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// Verify は署名・期限・種別をまとめて確認してユーザーIDを返す。
// 期限切れだけ ErrTokenExpired で区別する（クライアントがrefreshすべきか判断するため）。
func (s *Signer) Verify(tokenStr string, kind Kind) (int64, error) {
	claims := &Claims{}

	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		//HS256以外は拒否（alg none等の差し替え対策）
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret(kind), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}

	if !t.Valid {
		return 0, ErrInvalidToken
	}

	//種別が違うトークンは構造が正しくても拒否
	if claims.TokenType != string(kind) {
		return 0, ErrWrongTokenType
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}

	return userID, nil
}

func (s *Signer) secret(kind Kind) []byte {
	if kind == KindRefresh {
		return s.refreshSecret
	}
	return s.accessSecret
}
