package solanawallet

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	solana "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"

	"github.com/MarcGrol/cryptocheckout/services/orderlifecycle"
)

const DefaultUSDCMint = "Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr"

const solDecimals = 9

type WalletBalance struct {
	Address string          `json:"address"`
	SOL     decimal.Decimal `json:"sol"`
	USDC    decimal.Decimal `json:"usdc"`
}

// HasSufficient tells whether the wallet can pay amount in the given currency.
func (b WalletBalance) HasSufficient(currency orderlifecycle.Currency, amount decimal.Decimal) bool {
	switch currency {
	case orderlifecycle.CurrencySOL:
		return b.SOL.GreaterThanOrEqual(amount)
	case orderlifecycle.CurrencyUSDC:
		return b.USDC.GreaterThanOrEqual(amount)
	default:
		return false
	}
}

type BalanceReader struct {
	client   *rpc.Client
	usdcMint solana.PublicKey
}

func NewBalanceReader(rpcEndpoint string, usdcMint string) (*BalanceReader, error) {
	if usdcMint == "" {
		usdcMint = DefaultUSDCMint
	}
	mint, err := solana.PublicKeyFromBase58(usdcMint)
	if err != nil {
		return nil, fmt.Errorf("invalid usdc mint %q: %w", usdcMint, err)
	}
	return &BalanceReader{
		client:   rpc.New(rpcEndpoint),
		usdcMint: mint,
	}, nil
}

func (r *BalanceReader) Balance(c context.Context, address string) (WalletBalance, error) {
	wallet, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return WalletBalance{}, &orderlifecycle.ValidationError{Field: "address", Message: err.Error()}
	}

	lamports, err := r.client.GetBalance(c, wallet, rpc.CommitmentConfirmed)
	if err != nil {
		return WalletBalance{}, fmt.Errorf("error fetching sol balance of %s: %w", address, err)
	}

	usdc, err := r.tokenBalance(c, wallet)
	if err != nil {
		return WalletBalance{}, err
	}

	return WalletBalance{
		Address: address,
		SOL:     decimal.NewFromBigInt(new(big.Int).SetUint64(lamports.Value), -solDecimals),
		USDC:    usdc,
	}, nil
}

func (r *BalanceReader) tokenBalance(c context.Context, wallet solana.PublicKey) (decimal.Decimal, error) {
	account, _, err := solana.FindAssociatedTokenAddress(wallet, r.usdcMint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("error deriving token account of %s: %w", wallet, err)
	}

	resp, err := r.client.GetTokenAccountBalance(c, account, rpc.CommitmentConfirmed)
	if err != nil {
		if isMissingAccount(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("error fetching usdc balance of %s: %w", wallet, err)
	}
	if resp == nil || resp.Value == nil {
		return decimal.Zero, nil
	}

	raw, err := decimal.NewFromString(resp.Value.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid token amount %q: %w", resp.Value.Amount, err)
	}
	return raw.Shift(-int32(resp.Value.Decimals)), nil
}

func isMissingAccount(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "could not find account") || strings.Contains(msg, "Invalid param: could not find")
}
