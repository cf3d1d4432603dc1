package token

// アクセストークン検証の入口。
// アクセストークンはDBを見ない（ステートレス）。署名と期限だけで判定する。
type Verifier struct {
	signer *Signer
}

func NewVerifier(signer *Signer) *Verifier {
	return &Verifier{signer: signer}
}

// VerifyAccess はアクセストークンを検証してユーザーIDを返す。
// 失敗は ErrTokenExpired / ErrWrongTokenType / ErrInvalidToken のどれか。
func (v *Verifier) VerifyAccess(tokenStr string) (int64, error) {
	return v.signer.Verify(tokenStr, KindAccess)
}
