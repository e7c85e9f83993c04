package handlers

import (
	"context"

	"github.com/HammerMeetNail/odinbook/internal/models"
)

type contextKey string

const accountContextKey contextKey = "account"

func SetAccountInContext(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, accountContextKey, account)
}

func GetAccountFromContext(ctx context.Context) *models.Account {
	account, _ := ctx.Value(accountContextKey).(*models.Account)
	return account
}
