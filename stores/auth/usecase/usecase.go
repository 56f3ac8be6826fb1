package usecase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/unit-xyz/goapi/base/ctx"
	"github.com/unit-xyz/goapi/base/ethereum"
	"github.com/unit-xyz/goapi/domain"
	"github.com/unit-xyz/goapi/domain/account"
)

type impl struct {
	jwtSecret          []byte
	account            account.Usecase
	signingMsgTemplate string
}

func New(jwtSecret string, account account.Usecase, signingMsgTemplate string) domain.AuthUsecase {
	return &impl{
		jwtSecret:          []byte(jwtSecret),
		account:            account,
		signingMsgTemplate: signingMsgTemplate,
	}
}

// SignToken verifies the wallet signature over the signing message and
// issues a 24h JWT. The account is created on first sign-in.
func (im *impl) SignToken(ctx ctx.Ctx, address domain.Address, signature string) (string, error) {
	acc, err := im.account.Create(ctx, address)
	if err != nil {
		ctx.WithField("err", err).Error("account.Create failed")
		return "", err
	}

	msg := fmt.Sprintf(im.signingMsgTemplate, acc.Nonce)
	if valid, err := ethereum.ValidateMsgSignature([]byte(msg), signature, address.ToLowerStr()); err != nil {
		ctx.WithField("err", err).Error("ethereum.ValidateMsgSignature failed")
		return "", err
	} else if !valid {
		return "", domain.ErrInvalidSignature
	}

	claims := domain.JwtCustomClaims{
		Address: string(address.ToLower()),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	if ss, err := token.SignedString(im.jwtSecret); err != nil {
		ctx.WithField("err", err).Error("token.SignedString failed")
		return "", err
	} else {
		return ss, nil
	}
}

func (im *impl) ParseToken(ctx ctx.Ctx, str string) (string, error) {
	token, err := jwt.ParseWithClaims(str, &domain.JwtCustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return im.jwtSecret, nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := token.Claims.(*domain.JwtCustomClaims); ok && token.Valid {
		return claims.Address, nil
	}

	return "", domain.ErrInvalidSignature
}
