package checkoutcrypto

import (
	"context"

	"github.com/MarcGrol/cryptocheckout/services/solanawallet"
)

//go:generate mockgen -source=balance.go -package checkoutcrypto -destination balance_mock.go BalanceReader
type BalanceReader interface {
	Balance(c context.Context, address string) (solanawallet.WalletBalance, error)
}
